package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump flattens an error chain for logs. Postgres fields are filled from
// either driver since gorm runs on pgx while migrations run on lib/pq.
type ErrorDump struct {
	Message   string
	Code      Code
	Retryable bool
	Chain     []string

	PGCode       string
	PGConstraint string
	PGTable      string
	PGColumn     string
	PGDetail     string
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	code := CodeOf(err)
	d := ErrorDump{
		Message:   err.Error(),
		Code:      code,
		Retryable: MetadataFor(code).Retryable,
	}

	for e := err; e != nil; e = stdErrors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T", e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case stdErrors.As(err, &pgxErr):
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGColumn = pgxErr.ColumnName
		d.PGDetail = pgxErr.Detail
	case stdErrors.As(err, &pqErr):
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGColumn = pqErr.Column
		d.PGDetail = pqErr.Detail
	}

	return d
}

// Fields renders the dump as log fields, leaving out empty postgres entries.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":           d.Message,
		"error_code":      string(d.Code),
		"error_retryable": d.Retryable,
	}
	if len(d.Chain) > 0 {
		fields["error_chain"] = d.Chain
	}
	for key, value := range map[string]string{
		"pg_code":       d.PGCode,
		"pg_constraint": d.PGConstraint,
		"pg_table":      d.PGTable,
		"pg_column":     d.PGColumn,
		"pg_detail":     d.PGDetail,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}
