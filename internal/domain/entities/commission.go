package entities

import (
	"encoding/json"
	"fmt"
)

// commissionColumns is the width of a row in the commission project table.
// The project ID lives in the last column.
const commissionColumns = 8

// CommissionProjectRow is one row of the commission project table. The API
// serves rows as positional arrays; the project ID column is exposed by name.
type CommissionProjectRow struct {
	ProjectID string
	Columns   []json.RawMessage
}

// UnmarshalJSON decodes a positional row and validates its width
func (r *CommissionProjectRow) UnmarshalJSON(data []byte) error {
	var cols []json.RawMessage
	if err := json.Unmarshal(data, &cols); err != nil {
		return fmt.Errorf("%w: row is not an array: %v", ErrCommissionSchema, err)
	}
	if len(cols) < commissionColumns {
		return fmt.Errorf("%w: row has %d columns, want %d", ErrCommissionSchema, len(cols), commissionColumns)
	}

	id, err := scalarString(cols[commissionColumns-1])
	if err != nil {
		return fmt.Errorf("%w: project ID column: %v", ErrCommissionSchema, err)
	}
	if id == "" {
		return fmt.Errorf("%w: empty project ID", ErrCommissionSchema)
	}

	r.ProjectID = id
	r.Columns = cols
	return nil
}

// CommissionProjects is a page of the commission project table
type CommissionProjects struct {
	Rows         []CommissionProjectRow `json:"aaData"`
	TotalRecords int                    `json:"iTotalRecords"`
}

// scalarString accepts a JSON string or number
func scalarString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("not a string or number: %s", string(raw))
	}
	return n.String(), nil
}
