package session

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapdata/pkg/frame"
)

// PlaceholderStyle defines how bound parameters are written.
type PlaceholderStyle int

// Placeholder styles.
const (
	PlaceholderQuestion PlaceholderStyle = iota // ?
	PlaceholderDollar                           // $1, $2
)

// Normalization defines how a backend folds unquoted identifiers.
type Normalization int

// Normalization strategies.
const (
	NormCaseSensitive Normalization = iota
	NormUppercase
	NormLowercase
)

// simpleIdentifier matches names that can be written without quotes.
var simpleIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Dialect describes the SQL a session issues against one backend.
type Dialect struct {
	Name          string
	DefaultSchema string
	Placeholder   PlaceholderStyle
	Normalization Normalization

	// Quote wraps identifiers; a Quote inside a name is doubled.
	Quote string

	// Types maps frame kinds to column types used when creating tables.
	Types map[frame.Kind]string

	// TableTypes maps accepted table_type values to their SQL keyword.
	TableTypes map[string]string

	// CreateOrReplace is set when CREATE OR REPLACE TABLE is supported.
	CreateOrReplace bool

	// CrossDatabase is set when one session can address every database of
	// the account through three-part names.
	CrossDatabase bool

	// DatabaseInformationSchema is set when each database carries its own
	// INFORMATION_SCHEMA (<db>.INFORMATION_SCHEMA.TABLES).
	DatabaseInformationSchema bool

	// CaseInsensitiveCatalog is set when the backend resolves every
	// identifier case-insensitively, quoted or not.
	CaseInsensitiveCatalog bool

	// TruncateStatement empties a table, e.g. "TRUNCATE TABLE".
	TruncateStatement string
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default:
		return "?"
	}
}

// QuoteIdentifier quotes an identifier using the dialect's quote character.
func (d *Dialect) QuoteIdentifier(name string) string {
	q := d.Quote
	if q == "" {
		q = `"`
	}
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// FormatIdentifier writes simple names bare, so the backend folds them the
// way it folds any unquoted name, and quotes everything else.
func (d *Dialect) FormatIdentifier(name string) string {
	if simpleIdentifier.MatchString(name) {
		return name
	}
	return d.QuoteIdentifier(name)
}

// NormalizeName folds an identifier according to dialect rules.
func (d *Dialect) NormalizeName(name string) string {
	switch d.Normalization {
	case NormUppercase:
		return cases.Upper(language.Und).String(name)
	case NormLowercase:
		return cases.Lower(language.Und).String(name)
	default:
		return name
	}
}

// CatalogName returns the name as the backend stores it in its catalog:
// folded when it is written bare, verbatim when it is quoted.
func (d *Dialect) CatalogName(name string) string {
	if simpleIdentifier.MatchString(name) {
		return d.NormalizeName(name)
	}
	return name
}

// ColumnType returns the column type used for a frame kind.
func (d *Dialect) ColumnType(k frame.Kind) (string, error) {
	t, ok := d.Types[k]
	if !ok {
		return "", fmt.Errorf("%s: no column type for %s values", d.Name, k)
	}
	return t, nil
}

// TableTypeKeyword returns the keyword for a table_type option.
// The empty table type is always accepted and yields "".
func (d *Dialect) TableTypeKeyword(tableType string) (string, error) {
	if tableType == "" {
		return "", nil
	}
	kw, ok := d.TableTypes[strings.ToLower(tableType)]
	if !ok {
		return "", fmt.Errorf("%s: unsupported table_type %q", d.Name, tableType)
	}
	return kw, nil
}

// TableCountQuery builds the catalog query counting tables named t.
// Schema and table names are bound as parameters; only the database, which
// selects the catalog to read, is written into the statement.
func (d *Dialect) TableCountQuery(t TableName) (string, []any) {
	if d.DatabaseInformationSchema {
		query := fmt.Sprintf(
			"SELECT COUNT(*) FROM %s.INFORMATION_SCHEMA.TABLES WHERE %s AND %s",
			d.FormatIdentifier(t.Database), d.catalogMatch("TABLE_SCHEMA", 1), d.catalogMatch("TABLE_NAME", 2),
		)
		return query, []any{d.CatalogName(t.Schema), d.CatalogName(t.Table)}
	}

	query := fmt.Sprintf(
		"SELECT COUNT(*) FROM information_schema.tables WHERE %s AND %s AND %s",
		d.catalogMatch("table_catalog", 1), d.catalogMatch("table_schema", 2), d.catalogMatch("table_name", 3),
	)
	return query, []any{d.CatalogName(t.Database), d.CatalogName(t.Schema), d.CatalogName(t.Table)}
}

func (d *Dialect) catalogMatch(column string, index int) string {
	if d.CaseInsensitiveCatalog {
		return fmt.Sprintf("lower(%s) = lower(%s)", column, d.FormatPlaceholder(index))
	}
	return column + " = " + d.FormatPlaceholder(index)
}

// TableName identifies a table by database, schema and name.
type TableName struct {
	Database string
	Schema   string
	Table    string
}

// FullyQualifiedName joins the three parts with ".".
func (t TableName) FullyQualifiedName() string {
	return t.Database + "." + t.Schema + "." + t.Table
}

func (t TableName) String() string {
	return t.FullyQualifiedName()
}

// SQL renders the name for use in a statement.
func (t TableName) SQL(d *Dialect) string {
	return d.FormatIdentifier(t.Database) + "." + d.FormatIdentifier(t.Schema) + "." + d.FormatIdentifier(t.Table)
}
