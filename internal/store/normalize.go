package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// normalizeValue converte tipos de driver em valores simples e serializáveis em JSON.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case [16]byte:
		return uuid.UUID(val).String()
	case pgtype.Numeric:
		if !val.Valid {
			return nil
		}
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case pgtype.Time:
		if !val.Valid {
			return nil
		}
		d := time.Duration(val.Microseconds) * time.Microsecond
		return time.Time{}.Add(d).Format("15:04:05")
	case int32:
		return int64(val)
	case int16:
		return int64(val)
	case float32:
		return float64(val)
	default:
		return v
	}
}

// String lê uma coluna textual da linha; ausência ou nulo viram "".
func (r Row) String(key string) string {
	if r == nil {
		return ""
	}
	switch v := r[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return ""
	}
}

// Int64 lê uma coluna inteira; ok é falso para nulo ou tipo inesperado.
func (r Row) Int64(key string) (int64, bool) {
	if r == nil {
		return 0, false
	}
	switch v := r[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
