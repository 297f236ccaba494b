package importer

// amountMode determines how amounts are extracted from a row.
type amountMode int

const (
	// amountSigned is one signed European column ("-10,00"); negatives are expenses.
	amountSigned amountMode = iota
	// amountSplit is separate debit and credit columns ("Débito"/"Crédito").
	amountSplit
	// amountPositive is one plain positive column ("12.50"), as written by the Spendly export.
	amountPositive
)

// Profile describes the column layout of a supported CSV format.
type Profile struct {
	Name        string
	Comma       rune
	DateLayout  string
	DateCol     string
	LabelCol    string
	CategoryCol string // optional
	NoteCol     string // optional
	AmountMode  amountMode
	AmountCol   string // amountSigned and amountPositive
	DebitCol    string // amountSplit
	CreditCol   string // amountSplit
}

func (p Profile) requiredCols() []string {
	cols := []string{p.DateCol, p.LabelCol}

	switch p.AmountMode {
	case amountSigned, amountPositive:
		cols = append(cols, p.AmountCol)
	case amountSplit:
		cols = append(cols, p.DebitCol, p.CreditCol)
	}

	return cols
}

// Column names of the Spendly CSV format, shared with the exporter.
const (
	ColDate     = "date"
	ColLabel    = "label"
	ColCategory = "category"
	ColAmount   = "amount"
	ColNote     = "note"
)

// Header is the header row of the Spendly CSV format.
var Header = []string{ColDate, ColLabel, ColCategory, ColAmount, ColNote}

// profiles is tried in order; more specific layouts come first.
var profiles = []Profile{
	{
		Name:        "spendly",
		Comma:       ',',
		DateLayout:  "2006-01-02",
		DateCol:     ColDate,
		LabelCol:    ColLabel,
		CategoryCol: ColCategory,
		NoteCol:     ColNote,
		AmountMode:  amountPositive,
		AmountCol:   ColAmount,
	},
	{
		Name:       "bank-card",
		Comma:      ';',
		DateLayout: "02-01-2006",
		DateCol:    "Data",
		LabelCol:   "Descrição",
		AmountMode: amountSplit,
		DebitCol:   "Débito",
		CreditCol:  "Crédito",
	},
	{
		Name:       "bank-statement",
		Comma:      ';',
		DateLayout: "02-01-2006",
		DateCol:    "Data mov.",
		LabelCol:   "Descrição",
		AmountMode: amountSigned,
		AmountCol:  "Movimento",
	},
	{
		Name:       "bank-account",
		Comma:      ';',
		DateLayout: "02-01-2006",
		DateCol:    "Data mov.",
		LabelCol:   "Descrição",
		AmountMode: amountSigned,
		AmountCol:  "Montante",
	},
}

// delimiters lists each distinct separator used by a profile, in profile order.
func delimiters() []rune {
	var out []rune

	seen := make(map[rune]bool)

	for _, p := range profiles {
		if !seen[p.Comma] {
			seen[p.Comma] = true
			out = append(out, p.Comma)
		}
	}

	return out
}
