package report

// DisplayPlaces is the number of decimals shown for money, weights and multipliers
const DisplayPlaces = 2

// Workbook layout
const (
	SheetResults = "Results"
	SheetPools   = "Pools"

	// numFmtTwoDecimals is excelize's built-in "0.00" format
	numFmtTwoDecimals = 2
)

// Column headers shared by the text table and the workbook
var resultHeaders = []string{"Name", "Side", "Stake", "Confidence", "Multiplier", "Weight", "Payout", "Profit"}
