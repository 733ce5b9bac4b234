// Package tontest builds wallet state inits and signed ton_proof submissions
// for tests.
package tontest

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"testing"
	"time"

	"github.com/tonkeeper/tongo"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/wallet"

	"walletproof/internal/models"
)

const (
	Domain      = "app.example.com"
	subWalletID = 698983191
)

// V4Data lays out a fresh wallet v4 data cell.
func V4Data(t testing.TB, pub ed25519.PublicKey) *boc.Cell {
	t.Helper()
	c := boc.NewCell()
	must(t, c.WriteUint(0, 32))
	must(t, c.WriteUint(subWalletID, 32))
	must(t, c.WriteBytes(pub))
	must(t, c.WriteBit(false))
	return c
}

// V3Data lays out a fresh wallet v3 data cell.
func V3Data(t testing.TB, pub ed25519.PublicKey) *boc.Cell {
	t.Helper()
	c := boc.NewCell()
	must(t, c.WriteUint(0, 32))
	must(t, c.WriteUint(subWalletID, 32))
	must(t, c.WriteBytes(pub))
	return c
}

func Code(ver wallet.Version) *boc.Cell {
	return wallet.GetCodeByVer(ver)
}

// CustomCode is a code cell no known wallet layout matches.
func CustomCode(t testing.TB) *boc.Cell {
	t.Helper()
	c := boc.NewCell()
	must(t, c.WriteUint(0xdeadbeef, 32))
	return c
}

// StateInit serialises code and data as a StateInit cell and returns it with
// the workchain 0 address it derives.
func StateInit(t testing.TB, code, data *boc.Cell) (string, tongo.AccountID) {
	t.Helper()
	root := boc.NewCell()
	must(t, root.WriteBit(false)) // split_depth
	must(t, root.WriteBit(false)) // special
	must(t, root.WriteBit(true))  // code
	must(t, root.WriteBit(true))  // data
	must(t, root.WriteBit(false)) // library
	must(t, root.AddRef(code))
	must(t, root.AddRef(data))

	encoded, err := root.ToBocBase64()
	must(t, err)
	h, err := root.Hash()
	must(t, err)

	var id tongo.AccountID
	copy(id.Address[:], h)
	return encoded, id
}

type Wallet struct {
	Public    ed25519.PublicKey
	Private   ed25519.PrivateKey
	StateInit string
	Account   tongo.AccountID
}

func NewV4Wallet(t testing.TB) Wallet {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	must(t, err)
	stateInit, account := StateInit(t, Code(wallet.V4R2), V4Data(t, pub))
	return Wallet{pub, priv, stateInit, account}
}

// Sign builds a ton_proof submission for w signed with w's key.
func (w Wallet) Sign(t testing.TB, signed func(*models.TonProofMessage) []byte, ts time.Time, payload string) *models.TonProof {
	t.Helper()
	msg := &models.TonProofMessage{
		Workchain: w.Account.Workchain,
		Address:   w.Account.Address[:],
		Timestamp: ts.Unix(),
		Domain:    models.TonDomain{LengthBytes: uint32(len(Domain)), Value: Domain},
		Payload:   payload,
	}
	sig := ed25519.Sign(w.Private, signed(msg))

	return &models.TonProof{
		Address:   w.Account.ToRaw(),
		Network:   string(models.TonMainnet),
		PublicKey: hex.EncodeToString(w.Public),
		Proof: models.TonMessageInfo{
			Timestamp: msg.Timestamp,
			Domain:    msg.Domain,
			Signature: base64.StdEncoding.EncodeToString(sig),
			Payload:   payload,
			StateInit: w.StateInit,
		},
	}
}

func must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
