package reconciler

import (
	"os"
	"path/filepath"

	"upi-recon-engine/internal/atomicfile"
	"upi-recon-engine/internal/models"
)

func carryOverPath(runDir string) string {
	return filepath.Join(runDir, "hanging_state.json")
}

// loadCarryOverState reads hanging_state.json. A missing file means no
// prior cycle has run yet, so it yields an empty state rather than an
// error (§4.4's carry-over read discipline).
func loadCarryOverState(runDir string) (*models.CarryOverState, error) {
	state := &models.CarryOverState{}
	if err := atomicfile.ReadJSON(carryOverPath(runDir), state); err != nil {
		if os.IsNotExist(err) {
			return &models.CarryOverState{}, nil
		}
		return nil, err
	}
	return state, nil
}

func saveCarryOverState(runDir string, state *models.CarryOverState) error {
	if state == nil {
		state = &models.CarryOverState{}
	}
	return atomicfile.WriteJSON(carryOverPath(runDir), state)
}

func accountingOutputPath(runDir string) string {
	return filepath.Join(runDir, "accounting_output.json")
}

func loadAccountingOutput(runDir string) ([]*models.Voucher, error) {
	var vouchers []*models.Voucher
	if err := atomicfile.ReadJSON(accountingOutputPath(runDir), &vouchers); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return vouchers, nil
}

func saveAccountingOutput(runDir string, vouchers []*models.Voucher) error {
	return atomicfile.WriteJSON(accountingOutputPath(runDir), vouchers)
}
