// Package exceptionmatrix implements the terminal disposition table applied
// to whatever CBS rows the eight matching steps in internal/matcher leave
// unprocessed: a dense function from (CBS, Switch, NPCI) presence/outcome
// and direction to a named action with fixed effects on the three source
// rows.
//
// This has no direct donor precedent (the donor has no notion of a
// three-source exception table) and is grounded instead on the donor's
// general style of representing closed decision spaces as a map literal
// keyed by a small struct, seen in internal/matcher/config.go's
// enumerated TimezoneMode/MatchType constants.
package exceptionmatrix

import "upi-recon-engine/internal/models"

// SourceState is a coarse outcome for one source in the three-way tuple:
// SUCCESS when the source has a usable row for the RRN, FAILED when it has
// none (or the candidate was itself unresolved), DEEMED when NPCI reports
// a not-yet-settled response code. The NPCI state is taken from the NPCI
// row's response code whether or not an earlier step (Step 6) already
// processed that row, so keys with NPCI DEEMED can be reached. The Switch
// state is only ever SUCCESS or FAILED, so keys with a DEEMED Switch state
// are never reached.
type SourceState string

const (
	StateSuccess SourceState = "SUCCESS"
	StateFailed  SourceState = "FAILED"
	StateDeemed  SourceState = "DEEMED"
)

// Action names the terminal disposition chosen for a tuple, matching the
// decision table's action column.
type Action string

const (
	ActionMatched                       Action = "MATCHED"
	ActionConditionalTCC102              Action = "CONDITIONAL_TCC_102"
	ActionRemitterRefundTTUM             Action = "REMITTER_REFUND_TTUM"
	ActionBeneficiaryRecoveryTTUM        Action = "BENEFICIARY_RECOVERY_TTUM"
	ActionSwitchUpdate                   Action = "SWITCH_UPDATE"
	ActionConditionalTCC102SwitchUpdate  Action = "CONDITIONAL_TCC_102_SWITCH_UPDATE"
	ActionRemitterRecoveryTTUM           Action = "REMITTER_RECOVERY_TTUM"
	ActionBeneficiaryCreditTTUMTCC103    Action = "BENEFICIARY_CREDIT_TTUM_TCC_103"
	ActionUnmatched                      Action = "UNMATCHED"
)

// key is the lookup tuple: CBS/Switch/NPCI state plus direction.
type key struct {
	CBS, Switch, NPCI SourceState
	Direction         models.Direction
}

// Matrix is the dense, once-built decision table.
type Matrix struct {
	table map[key]Action
}

// New builds the matrix described in §4.3.
func New() *Matrix {
	m := &Matrix{table: make(map[key]Action)}

	m.set(StateSuccess, StateSuccess, StateSuccess, models.DirectionInward, ActionMatched)
	m.set(StateSuccess, StateSuccess, StateSuccess, models.DirectionOutward, ActionMatched)

	m.set(StateSuccess, StateSuccess, StateDeemed, models.DirectionInward, ActionConditionalTCC102)
	m.set(StateSuccess, StateSuccess, StateFailed, models.DirectionOutward, ActionRemitterRefundTTUM)

	m.set(StateFailed, StateSuccess, StateSuccess, models.DirectionInward, ActionBeneficiaryRecoveryTTUM)
	m.set(StateSuccess, StateFailed, StateSuccess, models.DirectionOutward, ActionSwitchUpdate)
	m.set(StateSuccess, StateDeemed, StateSuccess, models.DirectionInward, ActionConditionalTCC102SwitchUpdate)
	m.set(StateFailed, StateSuccess, StateSuccess, models.DirectionOutward, ActionRemitterRecoveryTTUM)

	m.set(StateFailed, StateFailed, StateSuccess, models.DirectionInward, ActionBeneficiaryCreditTTUMTCC103)

	return m
}

func (m *Matrix) set(cbs, sw, npci SourceState, dir models.Direction, action Action) {
	m.table[key{cbs, sw, npci, dir}] = action
}

// Lookup returns the action for a tuple, and whether the tuple was known.
// An unknown tuple's caller should log it and fall back to ActionUnmatched
// (§4.3: "unknown tuples default to UNMATCHED and are logged").
func (m *Matrix) Lookup(cbs, sw, npci SourceState, dir models.Direction) (Action, bool) {
	action, ok := m.table[key{cbs, sw, npci, dir}]
	return action, ok
}

// Effect describes what a resolved action does to each of the three
// source rows: its terminal status, exception type, and whether/what TTUM
// it schedules.
type Effect struct {
	CBSStatus    models.Status
	SwitchStatus models.Status
	NPCIStatus   models.Status

	ExceptionType models.ExceptionType
	TTUMRequired  bool
	TTUMType      models.TTUMType
	TCCType       models.TCCType
}

// EffectFor returns the row-level effects for a resolved action.
func EffectFor(action Action) Effect {
	switch action {
	case ActionMatched:
		return Effect{CBSStatus: models.StatusMatched, SwitchStatus: models.StatusMatched, NPCIStatus: models.StatusMatched}
	case ActionConditionalTCC102:
		return Effect{CBSStatus: models.StatusMatched, SwitchStatus: models.StatusMatched, NPCIStatus: models.StatusMatched,
			ExceptionType: models.ExceptionTCC102, TCCType: models.TCC102}
	case ActionRemitterRefundTTUM:
		return Effect{CBSStatus: models.StatusUnmatched, SwitchStatus: models.StatusUnmatched, NPCIStatus: models.StatusUnmatched,
			ExceptionType: models.ExceptionRemitterRefund, TTUMRequired: true, TTUMType: models.TTUMReversal}
	case ActionBeneficiaryRecoveryTTUM:
		return Effect{CBSStatus: models.StatusUnmatched, SwitchStatus: models.StatusMatched, NPCIStatus: models.StatusUnmatched,
			ExceptionType: models.ExceptionBeneficiaryRecovery, TTUMRequired: true, TTUMType: models.TTUMBeneficiaryCredit}
	case ActionSwitchUpdate:
		return Effect{CBSStatus: models.StatusMatched, SwitchStatus: models.StatusUnmatched, NPCIStatus: models.StatusMatched,
			ExceptionType: models.ExceptionSwitchUpdate}
	case ActionConditionalTCC102SwitchUpdate:
		return Effect{CBSStatus: models.StatusMatched, SwitchStatus: models.StatusUnmatched, NPCIStatus: models.StatusMatched,
			ExceptionType: models.ExceptionSwitchUpdateTCC, TCCType: models.TCC102}
	case ActionRemitterRecoveryTTUM:
		return Effect{CBSStatus: models.StatusUnmatched, SwitchStatus: models.StatusUnmatched, NPCIStatus: models.StatusUnmatched,
			ExceptionType: models.ExceptionRemitterRecovery, TTUMRequired: true, TTUMType: models.TTUMRecovery}
	case ActionBeneficiaryCreditTTUMTCC103:
		return Effect{CBSStatus: models.StatusUnmatched, SwitchStatus: models.StatusUnmatched, NPCIStatus: models.StatusUnmatched,
			ExceptionType: models.ExceptionTCC103, TTUMRequired: true, TTUMType: models.TTUMBeneficiaryCredit, TCCType: models.TCC103}
	default:
		return Effect{CBSStatus: models.StatusUnmatched, SwitchStatus: models.StatusUnmatched, NPCIStatus: models.StatusUnmatched}
	}
}
