package invoice

import (
	"fmt"
	"strings"

	"github.com/zombor/invoice-renamer/internal/scanning"
)

var (
	amountReplacer    = strings.NewReplacer(" ", "_", ".", "_")
	separatorReplacer = strings.NewReplacer("/", "-", `\`, "-")
)

// CanonicalFilename builds "{COMPANY} -- {AMOUNT}.pdf".
// The company is upper-cased and every space and period in the amount becomes an underscore.
// Empty fields leave an empty segment.
func CanonicalFilename(data scanning.InvoiceData) string {
	company := separatorReplacer.Replace(strings.ToUpper(data.CompanyName))
	amount := separatorReplacer.Replace(amountReplacer.Replace(data.Amount))
	return fmt.Sprintf("%s -- %s.pdf", company, amount)
}
