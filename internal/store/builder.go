package store

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// dialect abstrai as diferenças de sintaxe entre os backends: placeholder e
// aspas de identificador. No SQLite o identificador vai entre crases; entre aspas
// duplas, um nome que não resolve para coluna vira literal de texto.
type dialect struct {
	placeholder func(n int) string
	quote       func(name string) string
}

var (
	postgresDialect = dialect{
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		quote:       func(name string) string { return pgx.Identifier{name}.Sanitize() },
	}
	sqliteDialect = dialect{
		placeholder: func(int) string { return "?" },
		quote:       func(name string) string { return "`" + name + "`" },
	}
)

// ident valida e cita um nome de tabela ou coluna.
func (d dialect) ident(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("%w: identificador %q", ErrInvalidQuery, name)
	}
	return d.quote(name), nil
}

func sortedKeys[M ~map[string]any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d dialect) where(filters Filters, prefix string, next int) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	clauses := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, key := range sortedKeys(filters) {
		col, err := d.ident(key)
		if err != nil {
			return "", nil, err
		}
		value := filters[key]
		if value == nil {
			clauses = append(clauses, prefix+col+" IS NULL")
			continue
		}
		clauses = append(clauses, prefix+col+" = "+d.placeholder(next))
		args = append(args, value)
		next++
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func (d dialect) orderClause(orderBy string, prefix string) (string, error) {
	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" {
		return "", nil
	}
	fields := strings.Fields(orderBy)
	direction := "ASC"
	switch {
	case len(fields) == 2 && strings.EqualFold(fields[1], "desc"):
		direction = "DESC"
	case len(fields) == 2 && strings.EqualFold(fields[1], "asc"):
	case len(fields) == 1:
	default:
		return "", fmt.Errorf("%w: ordenação %q", ErrInvalidQuery, orderBy)
	}
	col, err := d.ident(fields[0])
	if err != nil {
		return "", err
	}
	return " ORDER BY " + prefix + col + " " + direction, nil
}

func (d dialect) selectSQL(table string, q Query) (string, []any, error) {
	tbl, err := d.ident(table)
	if err != nil {
		return "", nil, err
	}

	projection := "*"
	if len(q.Columns) > 0 {
		cols := make([]string, 0, len(q.Columns))
		for _, c := range q.Columns {
			c = strings.TrimSpace(c)
			if c == "*" {
				cols = append(cols, c)
				continue
			}
			quoted, err := d.ident(c)
			if err != nil {
				return "", nil, err
			}
			cols = append(cols, quoted)
		}
		projection = strings.Join(cols, ", ")
	}

	where, args, err := d.where(q.Filters, "", 1)
	if err != nil {
		return "", nil, err
	}
	order, err := d.orderClause(q.OrderBy, "")
	if err != nil {
		return "", nil, err
	}

	return "SELECT " + projection + " FROM " + tbl + where + order, args, nil
}

func (d dialect) insertSQL(table string, data Row) (string, []any, error) {
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%w: insert sem colunas em %s", ErrInvalidQuery, table)
	}
	tbl, err := d.ident(table)
	if err != nil {
		return "", nil, err
	}

	keys := sortedKeys(data)
	cols := make([]string, 0, len(keys))
	holders := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for i, key := range keys {
		col, err := d.ident(key)
		if err != nil {
			return "", nil, err
		}
		cols = append(cols, col)
		holders = append(holders, d.placeholder(i+1))
		args = append(args, data[key])
	}

	sql := "INSERT INTO " + tbl + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(holders, ", ") + ") RETURNING *"
	return sql, args, nil
}

func (d dialect) updateSQL(table string, filters Filters, data Row) (string, []any, error) {
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%w: update sem colunas em %s", ErrInvalidQuery, table)
	}
	if len(filters) == 0 {
		return "", nil, fmt.Errorf("%w: update sem filtros em %s", ErrInvalidQuery, table)
	}
	tbl, err := d.ident(table)
	if err != nil {
		return "", nil, err
	}

	keys := sortedKeys(data)
	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+len(filters))
	for i, key := range keys {
		col, err := d.ident(key)
		if err != nil {
			return "", nil, err
		}
		sets = append(sets, col+" = "+d.placeholder(i+1))
		args = append(args, data[key])
	}

	where, whereArgs, err := d.where(filters, "", len(keys)+1)
	if err != nil {
		return "", nil, err
	}
	args = append(args, whereArgs...)

	return "UPDATE " + tbl + " SET " + strings.Join(sets, ", ") + where, args, nil
}

func (d dialect) deleteSQL(table string, filters Filters) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, fmt.Errorf("%w: delete sem filtros em %s", ErrInvalidQuery, table)
	}
	tbl, err := d.ident(table)
	if err != nil {
		return "", nil, err
	}
	where, args, err := d.where(filters, "", 1)
	if err != nil {
		return "", nil, err
	}
	return "DELETE FROM " + tbl + where, args, nil
}

func (d dialect) viaSQL(v Via) (string, []any, error) {
	target, err := d.ident(v.Target)
	if err != nil {
		return "", nil, err
	}
	targetKey, err := d.ident(v.TargetKey)
	if err != nil {
		return "", nil, err
	}
	link, err := d.ident(v.Link)
	if err != nil {
		return "", nil, err
	}
	linkKey, err := d.ident(v.LinkKey)
	if err != nil {
		return "", nil, err
	}
	where, args, err := d.where(v.Filters, "l.", 1)
	if err != nil {
		return "", nil, err
	}

	sql := "SELECT t.* FROM " + target + " t JOIN " + link + " l ON l." + linkKey + " = t." + targetKey + where + " ORDER BY t." + targetKey
	return sql, args, nil
}
