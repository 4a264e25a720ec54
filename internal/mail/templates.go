package mail

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"
)

// BudgetAlertData fills the budget-alert template.
type BudgetAlertData struct {
	UserName       string
	AccountName    string
	PercentageUsed float64
	BudgetAmount   decimal.Decimal
	TotalExpenses  decimal.Decimal
}

// MonthlyReportData fills the monthly-report template.
type MonthlyReportData struct {
	UserName         string
	Month            string
	TotalIncome      decimal.Decimal
	TotalExpenses    decimal.Decimal
	Net              decimal.Decimal
	TransactionCount int
	ByCategory       map[string]decimal.Decimal
	Insights         []string
}

var budgetAlertTmpl = template.Must(template.New("budget-alert").Parse(`<html>
<body style="font-family: sans-serif; color: #1f2937;">
  <h1>Budget Alert</h1>
  <p>Hello {{.UserName}},</p>
  <p>You have used <strong>{{printf "%.1f" .PercentageUsed}}%</strong> of your monthly budget for
  <strong>{{.AccountName}}</strong>.</p>
  <p>Budget: ${{.BudgetAmount}}<br>
  Expenses so far: ${{.TotalExpenses}}</p>
  <p style="color: #6b7280;">Keep an eye on your spending to avoid overshooting your budget.</p>
</body>
</html>`))

var monthlyReportTmpl = template.Must(template.New("monthly-report").Parse(`<html>
<body style="font-family: sans-serif; color: #1f2937;">
  <h1>Monthly Financial Report</h1>
  <p>Hello {{.UserName}},</p>
  <p>Here is your financial summary for {{.Month}}:</p>
  <ul>
    <li><strong>Total Income:</strong> ${{.TotalIncome}}</li>
    <li><strong>Total Expenses:</strong> ${{.TotalExpenses}}</li>
    <li><strong>Net:</strong> ${{.Net}}</li>
    <li><strong>Transactions:</strong> {{.TransactionCount}}</li>
  </ul>
{{if .ByCategory}}  <h2>Spending by Category</h2>
  <ul>
{{range $category, $amount := .ByCategory}}    <li>{{$category}}: ${{$amount}}</li>
{{end}}  </ul>
{{end}}{{if .Insights}}  <h2>Insights</h2>
  <ul>
{{range .Insights}}    <li>{{.}}</li>
{{end}}  </ul>
{{end}}  <p style="color: #6b7280;">Thanks for using drachma. Keep tracking and improving!</p>
</body>
</html>`))

// RenderBudgetAlert renders the budget-alert email body.
func RenderBudgetAlert(data BudgetAlertData) (string, error) {
	var b strings.Builder
	if err := budgetAlertTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render budget alert: %w", err)
	}
	return b.String(), nil
}

// RenderMonthlyReport renders the monthly-report email body.
func RenderMonthlyReport(data MonthlyReportData) (string, error) {
	var b strings.Builder
	if err := monthlyReportTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render monthly report: %w", err)
	}
	return b.String(), nil
}
