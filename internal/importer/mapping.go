package importer

import (
	"strings"

	"github.com/gravadigital/eventmaster-api/internal/domain/guest"
)

// Mapping names the spreadsheet column that feeds each participation field.
// An empty column means the field is not imported.
type Mapping struct {
	Name       string `json:"name" form:"name"`
	NationalID string `json:"national_id" form:"national_id"`
	Phone      string `json:"phone" form:"phone"`
}

// IsZero reports whether no column is mapped.
func (m Mapping) IsZero() bool {
	return m.Name == "" && m.NationalID == "" && m.Phone == ""
}

// AsMap returns the mapping as a plain map for persistence.
func (m Mapping) AsMap() map[string]interface{} {
	return map[string]interface{}{
		"name":        m.Name,
		"national_id": m.NationalID,
		"phone":       m.Phone,
	}
}

var (
	nameKeywords       = []string{"nome", "guest", "convidado", "cliente", "pesoa", "name", "full name"}
	nationalIDKeywords = []string{"cpf", "doc", "documento", "identidade", "id"}
	phoneKeywords      = []string{"telefone", "celular", "phone", "whatsapp", "contato", "tel", "zap"}
)

// DetectColumns guesses the mapping from header labels. Each field is
// resolved independently: an exact keyword match wins over a substring
// match, and the first header in file order wins within each tier.
func DetectColumns(headers []string) Mapping {
	return Mapping{
		Name:       bestColumn(headers, nameKeywords),
		NationalID: bestColumn(headers, nationalIDKeywords),
		Phone:      bestColumn(headers, phoneKeywords),
	}
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '_', '-', ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}

func bestColumn(headers []string, keywords []string) string {
	normalized := make([]string, len(keywords))
	for i, k := range keywords {
		normalized[i] = normalizeHeader(k)
	}

	for _, h := range headers {
		nh := normalizeHeader(h)
		if nh == "" {
			continue
		}
		for _, k := range normalized {
			if nh == k {
				return h
			}
		}
	}

	for _, h := range headers {
		nh := normalizeHeader(h)
		if nh == "" {
			continue
		}
		for _, k := range normalized {
			if strings.Contains(nh, k) || strings.Contains(k, nh) {
				return h
			}
		}
	}
	return ""
}

// Extraction is the outcome of applying a mapping to a table.
type Extraction struct {
	Rows    []guest.Identity
	Read    int
	Skipped int
}

// ExtractRows resolves each row through m into trimmed identity fields and
// drops rows whose name, national ID and phone are all blank.
func ExtractRows(table *Table, m Mapping) Extraction {
	out := Extraction{Rows: []guest.Identity{}}
	if table == nil {
		return out
	}
	for _, row := range table.Rows {
		out.Read++
		id := guest.Identity{
			Name:       row.Text(m.Name),
			NationalID: row.Text(m.NationalID),
			Phone:      row.Text(m.Phone),
		}
		if id.IsEmpty() {
			out.Skipped++
			continue
		}
		out.Rows = append(out.Rows, id)
	}
	return out
}
