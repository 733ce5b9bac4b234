package ton_utils

import (
	"bytes"
	"encoding/hex"
	"errors"
	"slices"

	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/wallet"
)

const publicKeyBits = 256

// WalletLayout recognises one standard wallet contract by its code hash and
// knows where that contract keeps the owner's public key in its data cell.
type WalletLayout struct {
	Name     string
	CodeHash tlb.Bits256
	// DataBits is the exact bit length of a freshly deployed data cell.
	DataBits int
	// KeyOffset is the bit offset of the public key inside the data cell.
	KeyOffset int
}

func (l WalletLayout) Match(codeHash []byte, data *boc.Cell) ([]byte, bool) {
	if !bytes.Equal(codeHash, l.CodeHash[:]) {
		return nil, false
	}
	key, err := l.readPublicKey(data)
	if err != nil {
		return nil, false
	}
	return key, true
}

func (l WalletLayout) readPublicKey(data *boc.Cell) ([]byte, error) {
	data.ResetCounters()
	defer data.ResetCounters()

	if data.BitsAvailableForRead() != l.DataBits {
		return nil, errLayoutMismatch
	}
	if err := skipBits(data, l.KeyOffset); err != nil {
		return nil, err
	}
	return data.ReadBytes(publicKeyBits / 8)
}

func skipBits(c *boc.Cell, n int) error {
	for n > 0 {
		step := n
		if step > 64 {
			step = 64
		}
		if _, err := c.ReadUint(step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}

var errLayoutMismatch = errors.New("data cell does not match wallet layout")

// v5r1 is not shipped by the wallet package, so its code hash is pinned here.
const walletV5R1CodeHash = "20834b7b72b112147e1b2fb457b84e74d1a30f04f737d4f62a668e9552d2b72f"

func bits256FromHex(s string) tlb.Bits256 {
	var out tlb.Bits256
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(out) {
		panic("invalid code hash " + s)
	}
	copy(out[:], b)
	return out
}

func layoutFor(name string, ver wallet.Version, dataBits, keyOffset int) WalletLayout {
	return WalletLayout{
		Name:      name,
		CodeHash:  wallet.GetCodeHashByVer(ver),
		DataBits:  dataBits,
		KeyOffset: keyOffset,
	}
}

// knownWalletLayouts is ordered by priority; the first match wins.
//
//	v1, v2: seqno:uint32 public_key:bits256
//	v3:     seqno:uint32 subwallet:uint32 public_key:bits256
//	v4:     v3 ++ plugins:(HashmapE 264)
//	v5r1:   signature_allowed:bit seqno:uint32 wallet_id:uint32 public_key:bits256 extensions:(HashmapE 256)
var knownWalletLayouts = []WalletLayout{
	{Name: "v5r1", CodeHash: bits256FromHex(walletV5R1CodeHash), DataBits: 1 + 32 + 32 + 256 + 1, KeyOffset: 1 + 32 + 32},
	layoutFor("v4r2", wallet.V4R2, 32+32+256+1, 64),
	layoutFor("v4r1", wallet.V4R1, 32+32+256+1, 64),
	layoutFor("v3r2", wallet.V3R2, 32+32+256, 64),
	layoutFor("v3r1", wallet.V3R1, 32+32+256, 64),
	layoutFor("v2r2", wallet.V2R2, 32+256, 32),
	layoutFor("v2r1", wallet.V2R1, 32+256, 32),
	layoutFor("v1r3", wallet.V1R3, 32+256, 32),
	layoutFor("v1r2", wallet.V1R2, 32+256, 32),
	layoutFor("v1r1", wallet.V1R1, 32+256, 32),
}

// KnownWalletLayouts returns a copy of the built-in layouts in priority order.
func KnownWalletLayouts() []WalletLayout {
	return slices.Clone(knownWalletLayouts)
}
