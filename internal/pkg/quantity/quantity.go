package quantity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale é o número fixo de casas decimais das quantidades de estoque (DECIMAL(19,4)).
const Scale int32 = 4

// ErrInvalidQuantity é retornado quando um valor não pode ser representado na escala 4
// sem arredondamento, ou quando a entrada numérica é malformada.
var ErrInvalidQuantity = errors.New("quantidade inválida")

// Quantity representa uma quantidade de estoque em ponto fixo (escala 4).
// O valor zero de Quantity é uma quantidade zero válida.
type Quantity struct {
	d decimal.Decimal
}

// Zero é a quantidade nula.
var Zero = Quantity{}

// maxMagnitude é o primeiro valor absoluto que não cabe em DECIMAL(19,4).
var maxMagnitude = decimal.New(1, 19-Scale)

// Parse converte uma string decimal em Quantity.
// Dígitos fracionários significativos além da escala 4 são rejeitados, nunca arredondados.
func Parse(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Quantity{}, fmt.Errorf("%w: valor vazio", ErrInvalidQuantity)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, fmt.Errorf("%w: %q não é um número decimal", ErrInvalidQuantity, s)
	}
	return FromDecimal(d)
}

// MustParse é como Parse, mas entra em pânico em caso de erro. Uso restrito a constantes e testes.
func MustParse(s string) Quantity {
	q, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return q
}

// FromDecimal valida que d é representável em DECIMAL(19,4) sem perda:
// no máximo 4 casas decimais e valor absoluto abaixo de 10^15.
func FromDecimal(d decimal.Decimal) (Quantity, error) {
	if !d.Equal(d.Truncate(Scale)) {
		return Quantity{}, fmt.Errorf("%w: %s possui mais de %d casas decimais", ErrInvalidQuantity, d.String(), Scale)
	}
	q := Quantity{d: d.Truncate(Scale)}
	if !q.InRange() {
		return Quantity{}, fmt.Errorf("%w: %s excede o limite de DECIMAL(19,4)", ErrInvalidQuantity, d.String())
	}
	return q, nil
}

// FromInt cria uma quantidade inteira.
func FromInt(n int64) Quantity {
	return Quantity{d: decimal.NewFromInt(n)}
}

// Round arredonda d para a escala 4 usando arredondamento bancário (half-even).
// É o único ponto de arredondamento do pacote: quem chama opta explicitamente por ele.
func Round(d decimal.Decimal) Quantity {
	return Quantity{d: d.RoundBank(Scale)}
}

func (q Quantity) Add(o Quantity) Quantity { return Quantity{d: q.d.Add(o.d)} }
func (q Quantity) Sub(o Quantity) Quantity { return Quantity{d: q.d.Sub(o.d)} }
func (q Quantity) Neg() Quantity           { return Quantity{d: q.d.Neg()} }

// Cmp retorna -1, 0 ou +1 comparando q com o.
func (q Quantity) Cmp(o Quantity) int    { return q.d.Cmp(o.d) }
func (q Quantity) Equal(o Quantity) bool { return q.d.Equal(o.d) }
func (q Quantity) Sign() int             { return q.d.Sign() }
func (q Quantity) IsZero() bool          { return q.d.IsZero() }
func (q Quantity) IsNegative() bool      { return q.d.IsNegative() }
func (q Quantity) IsPositive() bool      { return q.d.IsPositive() }

// InRange informa se q cabe em DECIMAL(19,4). Somas de quantidades válidas podem sair do intervalo.
func (q Quantity) InRange() bool { return q.d.Abs().Cmp(maxMagnitude) < 0 }

// Decimal expõe o valor subjacente (somente leitura, decimal.Decimal é imutável).
func (q Quantity) Decimal() decimal.Decimal { return q.d }

// String sempre formata com 4 casas decimais (ex: "70.0000").
func (q Quantity) String() string {
	return q.d.StringFixed(Scale)
}

// MarshalJSON serializa como string para não perder precisão em clientes JSON.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

// UnmarshalJSON aceita tanto "12.5" quanto 12.5. Somente o literal null vira zero.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*q = Zero
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidQuantity, err)
		}
		raw = s
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// Scan implementa sql.Scanner para colunas DECIMAL(19,4).
func (q *Quantity) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuantity, err)
	}
	parsed, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// Value implementa driver.Valuer.
func (q Quantity) Value() (driver.Value, error) {
	return q.String(), nil
}
