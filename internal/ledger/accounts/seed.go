package accounts

// seedAccount describes one row of the standard chart of accounts.
type seedAccount struct {
	Number   string
	Name     string
	Type     AccountType
	Normal   NormalBalance
	IsSystem bool
}

// defaultChart is the standard skeleton installed by SeedDefaults.
// Accumulated Depreciation is a contra asset, hence credit-normal.
var defaultChart = []seedAccount{
	{Number: "1000", Name: "Cash", Type: TypeAsset, Normal: NormalDebit, IsSystem: true},
	{Number: "1100", Name: "Accounts Receivable", Type: TypeAsset, Normal: NormalDebit, IsSystem: true},
	{Number: "1200", Name: "Inventory - Raw Materials", Type: TypeAsset, Normal: NormalDebit, IsSystem: true},
	{Number: "1210", Name: "Inventory - Finished Goods", Type: TypeAsset, Normal: NormalDebit, IsSystem: true},
	{Number: "1300", Name: "Prepaid Expenses", Type: TypeAsset, Normal: NormalDebit},
	{Number: "1500", Name: "Fixed Assets - Equipment", Type: TypeAsset, Normal: NormalDebit},
	{Number: "1510", Name: "Accumulated Depreciation", Type: TypeAsset, Normal: NormalCredit},
	{Number: "2000", Name: "Accounts Payable", Type: TypeLiability, Normal: NormalCredit, IsSystem: true},
	{Number: "2100", Name: "Accrued Expenses", Type: TypeLiability, Normal: NormalCredit},
	{Number: "2200", Name: "Payroll Liabilities", Type: TypeLiability, Normal: NormalCredit},
	{Number: "2300", Name: "Sales Tax Payable", Type: TypeLiability, Normal: NormalCredit},
	{Number: "2500", Name: "Notes Payable", Type: TypeLiability, Normal: NormalCredit},
	{Number: "3000", Name: "Owner's Equity", Type: TypeEquity, Normal: NormalCredit, IsSystem: true},
	{Number: "3100", Name: "Retained Earnings", Type: TypeEquity, Normal: NormalCredit, IsSystem: true},
	{Number: "4000", Name: "Sales Revenue", Type: TypeRevenue, Normal: NormalCredit, IsSystem: true},
	{Number: "4100", Name: "Service Revenue", Type: TypeRevenue, Normal: NormalCredit},
	{Number: "4900", Name: "Other Income", Type: TypeRevenue, Normal: NormalCredit},
	{Number: "5000", Name: "Cost of Goods Sold", Type: TypeExpense, Normal: NormalDebit, IsSystem: true},
	{Number: "5100", Name: "Raw Materials Expense", Type: TypeExpense, Normal: NormalDebit},
	{Number: "5200", Name: "Direct Labor", Type: TypeExpense, Normal: NormalDebit},
	{Number: "6000", Name: "Wages & Salaries", Type: TypeExpense, Normal: NormalDebit},
	{Number: "6100", Name: "Rent Expense", Type: TypeExpense, Normal: NormalDebit},
	{Number: "6200", Name: "Utilities Expense", Type: TypeExpense, Normal: NormalDebit},
	{Number: "6300", Name: "Insurance Expense", Type: TypeExpense, Normal: NormalDebit},
	{Number: "6400", Name: "Depreciation Expense", Type: TypeExpense, Normal: NormalDebit},
	{Number: "6500", Name: "Office Supplies Expense", Type: TypeExpense, Normal: NormalDebit},
	{Number: "6900", Name: "Miscellaneous Expense", Type: TypeExpense, Normal: NormalDebit},
}
