package parsers

import (
	"path/filepath"
	"regexp"
	"strings"

	"upi-recon-engine/internal/models"
	"upi-recon-engine/pkg/errors"
)

// npciNamePattern matches {ISSR|ACQR}{P2P|P2M}{BANK4}{DDMMYY}_{1..10}C.{csv|xlsx}.
var npciNamePattern = regexp.MustCompile(`(?i)^(ISSR|ACQR)(P2P|P2M)([A-Z0-9]{4})(\d{6})_([1-9]|10)C\.(csv|xlsx)$`)

// drcNamePattern matches DRCREPORT{BANK4}{DDMMYY}... (trailing content unconstrained).
var drcNamePattern = regexp.MustCompile(`(?i)^DRCREPORT([A-Z0-9]{4})(\d{6}).*\.(csv|xlsx)$`)

// NPCIFilename is the parsed structure of an NPCI-convention filename.
type NPCIFilename struct {
	Direction models.Direction // ISSR -> inward, ACQR -> outward
	Category  string           // P2P or P2M
	Bank4     string
	DDMMYY    string
	Cycle     string // "1".."10"
	Ext       string
}

// ParseNPCIFilename validates filePath against the NPCI convention
// (§6.1: {ISSR|ACQR}{P2P|P2M}{BANK4}{DDMMYY}_{1..10}C.{csv|xlsx}) and
// returns its parsed parts. ISSR maps to inward, ACQR to outward.
func ParseNPCIFilename(filePath string) (*NPCIFilename, error) {
	name := filepath.Base(filePath)
	m := npciNamePattern.FindStringSubmatch(name)
	if m == nil {
		return nil, errors.FileError(errors.CodeInvalidFormat, filePath, nil)
	}
	dir := models.DirectionInward
	if strings.EqualFold(m[1], "ACQR") {
		dir = models.DirectionOutward
	}
	return &NPCIFilename{
		Direction: dir,
		Category:  strings.ToUpper(m[2]),
		Bank4:     strings.ToUpper(m[3]),
		DDMMYY:    m[4],
		Cycle:     m[5],
		Ext:       strings.ToLower(m[6]),
	}, nil
}

// DRCFilename is the parsed structure of a DRC-report-convention filename.
type DRCFilename struct {
	Bank4  string
	DDMMYY string
	Ext    string
}

// ParseDRCFilename validates filePath against the DRC report convention
// (§6.1: DRCREPORT{BANK4}{DDMMYY}...).
func ParseDRCFilename(filePath string) (*DRCFilename, error) {
	name := filepath.Base(filePath)
	m := drcNamePattern.FindStringSubmatch(name)
	if m == nil {
		return nil, errors.FileError(errors.CodeInvalidFormat, filePath, nil)
	}
	return &DRCFilename{
		Bank4:  strings.ToUpper(m[1]),
		DDMMYY: m[2],
		Ext:    strings.ToLower(m[3]),
	}, nil
}

// ValidateFilename enforces the §6.1 filename conventions for sources that
// have one. CBS and Switch files are content-sniffed and carry no strict
// naming format, so they always pass.
func ValidateFilename(source models.Source, filePath string) error {
	switch source {
	case models.SourceNPCI:
		_, err := ParseNPCIFilename(filePath)
		return err
	case models.SourceNTSL:
		_, err := ParseDRCFilename(filePath)
		return err
	default:
		return nil
	}
}
