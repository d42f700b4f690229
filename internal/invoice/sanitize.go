package invoice

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

var (
	errNotObject    = errors.New("response is not a JSON object")
	errTrailingData = errors.New("trailing data after JSON object")
)

var (
	topLevelKeys = map[string]struct{}{
		"fornecedor": {}, "faturado": {}, "numero_nota_fiscal": {}, "data_emissao": {},
		"descricao_produtos": {}, "valor_total": {}, "data_vencimento": {},
		"quantidade_parcelas": {}, "classificacao_despesa": {}, "classificacoes": {},
	}
	supplierKeys    = map[string]struct{}{"razao_social": {}, "fantasia": {}, "cnpj": {}}
	billedPartyKeys = map[string]struct{}{"nome_completo": {}, "cpf": {}}
)

var dateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006", "02.01.2006"}

// sanitize repairs a decoded model answer in place:
//   - drops unknown keys at every level
//   - trims strings and drops empty or null optionals
//   - coerces valor_total to a fixed two-digit decimal string
//   - coerces dates to YYYY-MM-DD
//   - defaults quantidade_parcelas to 1
//
// Values that cannot be coerced are dropped. The returned list names every
// dropped or rewritten key.
func sanitize(m map[string]any, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}
	var dropped []string
	drop := func(k, why string) {
		delete(m, k)
		dropped = append(dropped, k+"("+why+")")
	}

	for k := range maps.Clone(m) {
		if _, ok := topLevelKeys[k]; !ok {
			drop(k, "unknown")
		}
	}

	for k, allowed := range map[string]map[string]struct{}{"fornecedor": supplierKeys, "faturado": billedPartyKeys} {
		v, ok := m[k]
		if !ok {
			continue
		}
		obj, ok := v.(map[string]any)
		if !ok {
			drop(k, "type")
			continue
		}
		for sub, sv := range maps.Clone(obj) {
			if _, ok := allowed[sub]; !ok {
				delete(obj, sub)
				dropped = append(dropped, k+"."+sub+"(unknown)")
				continue
			}
			s, ok := asString(sv)
			if !ok || s == "" {
				delete(obj, sub)
				dropped = append(dropped, k+"."+sub+"(empty)")
				continue
			}
			obj[sub] = s
		}
	}

	for _, k := range []string{"numero_nota_fiscal", "descricao_produtos", "classificacao_despesa"} {
		if v, ok := m[k]; ok {
			s, ok := asString(v)
			if !ok || s == "" {
				drop(k, "empty")
				continue
			}
			m[k] = s
		}
	}

	if v, ok := m["valor_total"]; ok {
		amount, ok := parseMoney(v)
		if !ok {
			drop("valor_total", "money")
		} else {
			m["valor_total"] = amount.StringFixed(2)
		}
	}

	for _, k := range []string{"data_emissao", "data_vencimento"} {
		if v, ok := m[k]; ok {
			s, _ := asString(v)
			d, ok := parseDate(s)
			if !ok {
				drop(k, "date")
				continue
			}
			m[k] = d.String()
		}
	}

	m["quantidade_parcelas"] = parseInstallments(m["quantidade_parcelas"])

	if v, ok := m["classificacoes"]; ok {
		list, _ := v.([]any)
		names := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := asString(item); ok && s != "" {
				names = append(names, s)
			}
		}
		if len(names) == 0 {
			drop("classificacoes", "empty")
		} else {
			m["classificacoes"] = names
		}
	}

	if len(dropped) > 0 {
		logger.Warn("invoice.extract.sanitize", "dropped", dropped)
	}
	return dropped
}

func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if strings.EqualFold(s, "null") {
			return "", false
		}
		return s, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

// parseMoney accepts JSON numbers and strings such as "1234.56", "1.234,56",
// "1.234" or "R$ 1.234,56". Amounts with more than two fraction digits and
// ambiguous separators are rejected rather than guessed.
func parseMoney(v any) (decimal.Decimal, bool) {
	var (
		d   decimal.Decimal
		err error
	)
	switch t := v.(type) {
	case json.Number:
		d, err = decimal.NewFromString(t.String())
	case float64:
		d = decimal.NewFromFloat(t)
	case string:
		var ok bool
		if d, ok = parseMoneyString(t); !ok {
			return decimal.Decimal{}, false
		}
	default:
		return decimal.Decimal{}, false
	}
	if err != nil || !d.Equal(d.Round(2)) {
		return decimal.Decimal{}, false
	}
	return d, true
}

// parseMoneyString resolves which separator is the decimal point. The last
// of "," and "." wins when both appear. A lone "." followed by exactly three
// digits, or any repeated separator, groups thousands. With the R$ prefix a
// lone "." must group thousands.
func parseMoneyString(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	currency := strings.HasPrefix(s, "R$")
	s = strings.TrimPrefix(s, "R$")
	s = strings.NewReplacer(" ", "", "\u00a0", "").Replace(s)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if s == "" {
		return decimal.Decimal{}, false
	}

	var (
		whole, frac string
		group       string
	)
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		sep := comma
		group = "."
		if dot > comma {
			sep, group = dot, ","
		}
		whole, frac = s[:sep], s[sep+1:]
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			whole, group = s, ","
		} else {
			whole, frac = s[:comma], s[comma+1:]
		}
	case dot >= 0:
		switch {
		case strings.Count(s, ".") > 1 || len(s)-dot-1 == 3:
			whole, group = s, "."
		case currency:
			return decimal.Decimal{}, false
		default:
			whole, frac = s[:dot], s[dot+1:]
		}
	default:
		whole = s
	}

	digits, ok := ungroup(whole, group)
	if !ok || len(frac) > 2 || !allDigits(frac) {
		return decimal.Decimal{}, false
	}
	if frac != "" {
		digits += "." + frac
	}
	d, err := decimal.NewFromString(sign + digits)
	return d, err == nil
}

// ungroup strips thousands separators, requiring groups of three digits
// after the first.
func ungroup(s, sep string) (string, bool) {
	if sep == "" || !strings.Contains(s, sep) {
		return s, s != "" && allDigits(s)
	}
	parts := strings.Split(s, sep)
	if n := len(parts[0]); n == 0 || n > 3 {
		return "", false
	}
	for i, p := range parts {
		if !allDigits(p) || (i > 0 && len(p) != 3) {
			return "", false
		}
	}
	return strings.Join(parts, ""), true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseDate(s string) (civil.Date, bool) {
	if s == "" {
		return civil.Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), true
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return civil.DateOf(t), true
	}
	return civil.Date{}, false
}

func parseInstallments(v any) int {
	var n int64
	switch t := v.(type) {
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			f, ferr := t.Float64()
			if ferr != nil {
				return 1
			}
			i = int64(f)
		}
		n = i
	case float64:
		n = int64(t)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 1
		}
		n = i
	default:
		return 1
	}
	if n < 1 {
		return 1
	}
	return int(n)
}

// toInvoice re-encodes a sanitized map into the typed record.
func toInvoice(m map[string]any) (*Invoice, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("sanitize: encode: %w", err)
	}
	var inv Invoice
	if err := json.Unmarshal(b, &inv); err != nil {
		return nil, fmt.Errorf("sanitize: decode: %w", err)
	}
	return &inv, nil
}
