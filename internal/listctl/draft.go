package listctl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gateadmin/internal/gatemaster"
)

// Поля черновика, как их называет форма и WebSocket-сообщение draft_change.
const (
	FieldID         = "id"
	FieldBranchID   = "IdCabang"
	FieldBranchName = "NamaCabang"
	FieldGateName   = "NamaGerbang"
)

var ErrUnknownField = errors.New("unknown draft field")

// Draft — черновик формы; все значения строковые до отправки.
type Draft struct {
	ID         string `json:"id"`
	BranchID   string `json:"IdCabang"`
	BranchName string `json:"NamaCabang"`
	GateName   string `json:"NamaGerbang"`
}

func draftFrom(g gatemaster.GateMaster) Draft {
	return Draft{
		ID:         strconv.Itoa(g.ID),
		BranchID:   strconv.Itoa(g.BranchID),
		BranchName: g.BranchName,
		GateName:   g.GateName,
	}
}

func (d *Draft) set(field, value string) error {
	switch field {
	case FieldID:
		d.ID = value
	case FieldBranchID:
		d.BranchID = value
	case FieldBranchName:
		d.BranchName = value
	case FieldGateName:
		d.GateName = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// record разбирает черновик в запись; числовые поля обязаны быть целыми > 0.
func (d Draft) record() (gatemaster.GateMaster, error) {
	id, err := positiveInt(FieldID, d.ID)
	if err != nil {
		return gatemaster.GateMaster{}, err
	}
	branchID, err := positiveInt(FieldBranchID, d.BranchID)
	if err != nil {
		return gatemaster.GateMaster{}, err
	}
	return gatemaster.GateMaster{
		ID:         id,
		BranchID:   branchID,
		BranchName: strings.TrimSpace(d.BranchName),
		GateName:   strings.TrimSpace(d.GateName),
	}, nil
}

func positiveInt(field, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive number", field)
	}
	return n, nil
}
