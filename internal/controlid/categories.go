package controlid

import "strings"

// IndicatorPrefix opens every Key Security Indicator tag, e.g. KSI-IAM-05.
const IndicatorPrefix = "KSI"

type Category struct {
	Code string
	Name string
}

var Categories = []Category{
	{Code: "CED", Name: "Cybersecurity Education"},
	{Code: "CMT", Name: "Change Management"},
	{Code: "CNA", Name: "Cloud Native Architecture"},
	{Code: "IAM", Name: "Identity and Access Management"},
	{Code: "INR", Name: "Incident Reporting"},
	{Code: "MLA", Name: "Monitoring, Logging, and Auditing"},
	{Code: "PIY", Name: "Policy and Inventory"},
	{Code: "RPL", Name: "Recovery Planning"},
	{Code: "SVC", Name: "Service Configuration"},
	{Code: "TPR", Name: "Third-Party Information Resources"},
}

// CategoryName falls back to the code for categories outside the enumeration.
func CategoryName(code string) string {
	for _, c := range Categories {
		if c.Code == code {
			return c.Name
		}
	}
	return code
}

// IndicatorCategory returns CAT for a KSI-CAT-NN tag.
func IndicatorCategory(tag string) string {
	parts := strings.Split(tag, "-")
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}

func categoryCodes() []string {
	out := make([]string, 0, len(Categories))
	for _, c := range Categories {
		out = append(out, c.Code)
	}
	return out
}
