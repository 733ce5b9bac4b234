package ton_utils

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/tonkeeper/tongo"

	"walletproof/internal/models"
	"walletproof/internal/pkg/proof"
)

const (
	tonProofPrefix   = "ton-proof-item-v2/"
	tonConnectPrefix = "ton-connect"
)

func ParseTonProofMessage(tp *models.TonProof) (*models.TonProofMessage, error) {
	var message models.TonProofMessage

	addr, err := tongo.ParseAddress(tp.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: address: %v", proof.ErrMalformedProof, err)
	}
	sig, err := base64.StdEncoding.DecodeString(tp.Proof.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", proof.ErrMalformedProof, err)
	}

	message.Workchain = addr.ID.Workchain
	message.Address = addr.ID.Address[:]
	message.Domain = tp.Proof.Domain
	message.Timestamp = tp.Proof.Timestamp
	message.Signature = sig
	message.Payload = tp.Proof.Payload
	message.StateInit = tp.Proof.StateInit
	return &message, nil
}

func ParsePublicKey(publicKeyHex string) ([]byte, error) {
	key, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %v", proof.ErrMalformedProof, err)
	}
	return key, nil
}

// CreateMessage returns the 32 bytes a wallet signs for ton_proof:
// sha256(0xffff ++ "ton-connect" ++ sha256(item)).
func CreateMessage(message *models.TonProofMessage) []byte {
	wc := make([]byte, 4)
	binary.BigEndian.PutUint32(wc, uint32(message.Workchain))

	ts := make([]byte, 8)
	binary.LittleEndian.PutUint64(ts, uint64(message.Timestamp))

	dl := make([]byte, 4)
	binary.LittleEndian.PutUint32(dl, message.Domain.LengthBytes)

	m := []byte(tonProofPrefix)
	m = append(m, wc...)
	m = append(m, message.Address...)
	m = append(m, dl...)
	m = append(m, []byte(message.Domain.Value)...)
	m = append(m, ts...)
	m = append(m, []byte(message.Payload)...)
	messageHash := sha256.Sum256(m)

	fullMes := []byte{0xff, 0xff}
	fullMes = append(fullMes, []byte(tonConnectPrefix)...)
	fullMes = append(fullMes, messageHash[:]...)
	res := sha256.Sum256(fullMes)
	return res[:]
}

func AccountID(message *models.TonProofMessage) tongo.AccountID {
	var id tongo.AccountID
	id.Workchain = message.Workchain
	copy(id.Address[:], message.Address)
	return id
}

// CheckProof runs the full ton_proof pipeline and returns the address derived
// from the submitted state init.
func CheckProof(ctx context.Context, cfg proof.Config, resolver *Resolver, now time.Time, tp *models.TonProof) (tongo.AccountID, error) {
	var zero tongo.AccountID

	network, err := models.ParseTonNetwork(tp.Network)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", proof.ErrMalformedProof, err)
	}

	message, err := ParseTonProofMessage(tp)
	if err != nil {
		return zero, err
	}

	declaredKey, err := ParsePublicKey(tp.PublicKey)
	if err != nil {
		return zero, err
	}

	if !cfg.NotExpired(now, message.Timestamp+int64(cfg.ValidityWindow/time.Second)) {
		return zero, fmt.Errorf("%w: proof timestamp %d", proof.ErrExpiredChallenge, message.Timestamp)
	}

	if !cfg.DomainAllowed(message.Domain.Value) {
		return zero, fmt.Errorf("%w: domain %q not allowed", proof.ErrMalformedProof, message.Domain.Value)
	}

	signed := CreateMessage(message)

	derived, err := resolver.Resolve(ctx, network, AccountID(message), message.StateInit, declaredKey)
	if err != nil {
		return zero, err
	}

	if err := proof.VerifyDetachedEd25519(signed, message.Signature, declaredKey); err != nil {
		return zero, err
	}

	return derived, nil
}
