package importer_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/importer"
	"github.com/MrJamesThe3rd/spendly/internal/money"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParse_Spendly(t *testing.T) {
	csv := `date,label,category,amount,note
2024-03-05,Groceries,food,50.00,weekly shop
2024-03-20,"Bus pass, monthly",Transport,30,
`

	got, err := importer.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, "spendly", got.Format)
	require.Len(t, got.Params, 2)

	assert.Equal(t, expense.CreateParams{
		Amount:   5000,
		Category: expense.CategoryFood,
		Label:    "Groceries",
		Note:     "weekly shop",
		Date:     date(2024, 3, 5),
	}, got.Params[0])
	assert.Equal(t, "Bus pass, monthly", got.Params[1].Label)
	assert.Equal(t, int64(3000), got.Params[1].Amount)
	assert.Empty(t, got.Params[1].Note)
}

func TestParse_SpendlyInvalidAmount(t *testing.T) {
	csv := `date,label,category,amount,note
2024-03-05,Groceries,Food,abc,
`

	_, err := importer.Parse(strings.NewReader(csv))
	require.Error(t, err)
	assert.ErrorIs(t, err, money.ErrInvalidAmount)
	assert.Contains(t, err.Error(), "row 2")
}

func TestParse_SpendlyNegativeAmount(t *testing.T) {
	csv := `date,label,category,amount,note
2024-03-05,Refund,Food,-5,
`

	_, err := importer.Parse(strings.NewReader(csv))
	assert.ErrorIs(t, err, money.ErrInvalidAmount)
}

func TestParse_SpendlyUnknownCategory(t *testing.T) {
	csv := `date,label,category,amount,note
2024-03-05,Boat,Yachting,5,
`

	_, err := importer.Parse(strings.NewReader(csv))
	assert.ErrorIs(t, err, expense.ErrInvalidParams)
}

func TestParse_BankAccount(t *testing.T) {
	csv := `Consultar saldos e movimentos à ordem - 31-01-2026;"=""0000"""
Nome cliente;JOHN DOE

Dados da conta
Saldo contabilístico;1.000,00 EUR

Data mov.;Data-valor;Descrição;Montante;Saldo contabilístico após movimento
30-01-2026;30-01-2026;INSTITUTO GESTAO FINA;-588,74;48.825,46
09-01-2026;09-01-2026;TFI Wise;8.608,52;52.532,78
`

	got, err := importer.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, "bank-account", got.Format)
	require.Len(t, got.Params, 1)
	assert.Equal(t, 1, got.Skipped)

	assert.Equal(t, date(2026, 1, 30), got.Params[0].Date)
	assert.Equal(t, "INSTITUTO GESTAO FINA", got.Params[0].Label)
	assert.Equal(t, int64(58874), got.Params[0].Amount)
	assert.Equal(t, expense.CategoryOther, got.Params[0].Category)
}

func TestParse_BankStatement(t *testing.T) {
	csv := `Consultar extrato - 15-02-2026 : 0829015676030
Nome empresa ;VIBRANTGARDEN UNIPESSOAL,LDA
Saldo contabilístico final ;41.393,66

Data mov. ;Data valor ;Origem ;Descrição ;Movimento ;Estorno ;Saldo contabilístico após movimento ;
13-02-2026;13-02-2026;"=""0003""";PAGAMENTO TSU ;-608,13;  ;41.393,66;
04-02-2026;04-02-2026;SIBS ;TFI Wise ;4.324,06;  ;51.302,85;
`

	got, err := importer.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, "bank-statement", got.Format)
	require.Len(t, got.Params, 1)

	assert.Equal(t, date(2026, 2, 13), got.Params[0].Date)
	assert.Equal(t, "PAGAMENTO TSU", got.Params[0].Label)
	assert.Equal(t, int64(60813), got.Params[0].Amount)
}

func TestParse_BankCard(t *testing.T) {
	csv := `Consultar saldos e movimentos de cartões - 15-02-2026
Desde ;15/12/2025

Data ;Data valor ;Descrição ;Débito ;Crédito ;
16-12-2025 ;14-12-2025 ;PA GONDOMAR         GONDOMAR ;64,00 ; ;
31-12-2025 ;29-12-2025 ;UBER   *TRIP             HELP.UBER.COMNL ;47,91 ; ;
20-12-2025 ;20-12-2025 ;REFUND AMAZON ;  ;25,00 ;
 ; ; ; ;Página 1/2 ;
`

	got, err := importer.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, "bank-card", got.Format)
	require.Len(t, got.Params, 2)
	assert.Equal(t, 1, got.Skipped)

	assert.Equal(t, date(2025, 12, 16), got.Params[0].Date)
	assert.Equal(t, int64(6400), got.Params[0].Amount)
	assert.Equal(t, "UBER   *TRIP             HELP.UBER.COMNL", got.Params[1].Label)
	assert.Equal(t, int64(4791), got.Params[1].Amount)
}

func TestParse_Latin1Encoding(t *testing.T) {
	utf8CSV := "Data mov.;Descrição;Montante\n30-01-2026;CAFÉ CENTRAL;-10,00\n"

	latin1Bytes, err := charmap.Windows1252.NewEncoder().Bytes([]byte(utf8CSV))
	require.NoError(t, err)

	got, err := importer.Parse(bytes.NewReader(latin1Bytes))
	require.NoError(t, err)
	require.Len(t, got.Params, 1)
	assert.Equal(t, "CAFÉ CENTRAL", got.Params[0].Label)
	assert.Equal(t, "windows-1252", got.Charset)
}

func TestParse_DifferentColumnOrder(t *testing.T) {
	csv := `Random;MetaData
Montante;Descrição;Data mov.;Ignored
-10,00;TEST_ORDER;30-01-2026;XXX
`

	got, err := importer.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, got.Params, 1)
	assert.Equal(t, "TEST_ORDER", got.Params[0].Label)
	assert.Equal(t, int64(1000), got.Params[0].Amount)
}

func TestParse_UnknownFormat(t *testing.T) {
	for _, in := range []string{"", "foo,bar\n1,2\n"} {
		_, err := importer.Parse(strings.NewReader(in))
		assert.ErrorIs(t, err, importer.ErrUnknownFormat)
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	got, err := importer.Parse(strings.NewReader(`Data mov.;Data-valor;Descrição;Montante`))
	require.NoError(t, err)
	assert.Empty(t, got.Params)
}

func TestParse_MissingLabel(t *testing.T) {
	csv := `Data mov.;Descrição;Montante
30-01-2026;;-10,00
`

	_, err := importer.Parse(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing label")
}

func TestParse_LargeAmounts(t *testing.T) {
	csv := `Data mov.;Descrição;Montante
30-01-2026;BIG TRANSFER;-1.234.567,89
Totais;;;;
`

	got, err := importer.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, got.Params, 1)
	assert.Equal(t, int64(123456789), got.Params[0].Amount)
}

type fakeSuggester struct {
	calls int
}

func (f *fakeSuggester) SuggestAll(_ context.Context, _ uuid.UUID, params []expense.CreateParams) error {
	f.calls++

	for i := range params {
		if strings.Contains(params[i].Label, "UBER") {
			params[i].Category = expense.CategoryTransport
		}
	}

	return nil
}

func TestService_Import(t *testing.T) {
	bank := `Data mov.;Descrição;Montante
30-01-2026;UBER TRIP;-10,00
30-01-2026;PINGO DOCE;-22,40
`
	spendly := `date,label,category,amount,note
2024-03-05,UBER,Food,5,
`

	suggester := &fakeSuggester{}
	svc := importer.NewService(suggester)

	got, err := svc.Import(context.Background(), uuid.New(), strings.NewReader(bank))
	require.NoError(t, err)
	require.Len(t, got.Params, 2)
	assert.Equal(t, expense.CategoryTransport, got.Params[0].Category)
	assert.Equal(t, expense.CategoryOther, got.Params[1].Category)

	got, err = svc.Import(context.Background(), uuid.New(), strings.NewReader(spendly))
	require.NoError(t, err)
	assert.Equal(t, expense.CategoryFood, got.Params[0].Category)
	assert.Equal(t, 1, suggester.calls)
}
