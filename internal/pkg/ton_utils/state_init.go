package ton_utils

import (
	"fmt"

	"github.com/tonkeeper/tongo"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"

	"walletproof/internal/pkg/proof"
)

// WalletStateInit is a decoded state init that carries both code and data.
type WalletStateInit struct {
	root *boc.Cell
	code boc.Cell
	data boc.Cell
}

func ParseStateInit(stateInit string) (*WalletStateInit, error) {
	cells, err := boc.DeserializeBocBase64(stateInit)
	if err != nil {
		return nil, fmt.Errorf("%w: state init: %v", proof.ErrMalformedProof, err)
	}
	if len(cells) != 1 {
		return nil, fmt.Errorf("%w: state init has %d roots", proof.ErrMalformedProof, len(cells))
	}

	var state tlb.StateInit
	if err := tlb.Unmarshal(cells[0], &state); err != nil {
		return nil, fmt.Errorf("%w: state init: %v", proof.ErrMalformedProof, err)
	}
	if !state.Code.Exists || !state.Data.Exists {
		return nil, fmt.Errorf("%w: empty init state", proof.ErrMalformedProof)
	}

	return &WalletStateInit{
		root: cells[0],
		code: state.Code.Value.Value,
		data: state.Data.Value.Value,
	}, nil
}

// AccountID derives the contract address: the representation hash of the
// state init cell, qualified by workchain.
func (si *WalletStateInit) AccountID(workchain int32) (tongo.AccountID, error) {
	var id tongo.AccountID
	h, err := si.root.Hash()
	if err != nil {
		return id, fmt.Errorf("%w: state init hash: %v", proof.ErrMalformedProof, err)
	}
	id.Workchain = workchain
	copy(id.Address[:], h)
	return id, nil
}

// PublicKey tries the known wallet layouts in order and returns the first key
// whose layout matches both code and data.
func (si *WalletStateInit) PublicKey(layouts []WalletLayout) ([]byte, string, bool) {
	codeHash, err := si.code.Hash()
	if err != nil {
		return nil, "", false
	}
	for _, layout := range layouts {
		if key, ok := layout.Match(codeHash, &si.data); ok {
			return key, layout.Name, true
		}
	}
	return nil, "", false
}

func CompareStateInitWithAddress(a tongo.AccountID, stateInit string) (bool, error) {
	si, err := ParseStateInit(stateInit)
	if err != nil {
		return false, err
	}
	derived, err := si.AccountID(a.Workchain)
	if err != nil {
		return false, err
	}
	return derived == a, nil
}
