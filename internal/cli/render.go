package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/model"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/scoring"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/types"
)

const pending = "pending"

type palette struct {
	good   *color.Color
	accent *color.Color
	warn   *color.Color
	bad    *color.Color
}

func newPalette(noColor bool) *palette {
	p := &palette{
		good:   color.New(color.FgGreen),
		accent: color.New(color.FgCyan, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		bad:    color.New(color.FgRed, color.Bold),
	}
	if noColor {
		for _, c := range []*color.Color{p.good, p.accent, p.warn, p.bad} {
			c.DisableColor()
		}
	}
	return p
}

// gradeColor picks a color by letter: A and B+ good, D+ and D warn, F bad.
func (p *palette) gradeColor(letter string) *color.Color {
	switch letter {
	case "A", "B+":
		return p.good
	case "D+", "D":
		return p.warn
	case "F":
		return p.bad
	default:
		return p.accent
	}
}

func formatScore(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(scoring.RoundForDisplay(*v), 'f', 2, 64)
}

// renderSummary prints the student header, a per-rater table and the result.
func renderSummary(w io.Writer, p *palette, student model.StudentInfo, sum types.Summary) error { //nolint:gocritic // hugeParam: rendered once
	if student.Name != "" || student.StudentID != "" {
		fmt.Fprintf(w, "Student: %s (%s) %s\n", student.Name, student.StudentID, student.Department)
	}
	if student.ThesisTitle != "" {
		fmt.Fprintf(w, "Thesis:  %s\n", student.ThesisTitle)
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rater", "Sheet 1", "Sheet 2", "Avg 1", "Avg 2", "Weighted", "Status"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, r := range sum.Raters {
		status := p.warn.Sprint("incomplete")
		if r.Complete {
			status = p.good.Sprint("complete")
		}
		data = append(data, []string{
			r.Name,
			fmt.Sprintf("%d/%d", r.Sheet1Filled, model.Sheet1Items),
			fmt.Sprintf("%d/%d", r.Sheet2Filled, model.Sheet2Items),
			formatScore(r.Sheet1Average),
			formatScore(r.Sheet2Average),
			formatScore(r.WeightedScore),
			status,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(w, "Policy:      %s\n", sum.Policy)
	fmt.Fprintf(w, "Progress:    %s\n", sum.Progress)
	if !sum.Complete {
		fmt.Fprintf(w, "Final score: %s\n", p.warn.Sprint(pending))
		fmt.Fprintf(w, "Grade:       %s\n", p.warn.Sprint(pending))
		return nil
	}
	fmt.Fprintf(w, "Final score: %s / 5.00\n", formatScore(sum.FinalScore))
	fmt.Fprintf(w, "Percent:     %s%%\n", formatScore(sum.Percent))
	g := sum.Grade
	fmt.Fprintf(w, "Grade:       %s (GPA %.1f, %s)\n", p.gradeColor(g.Letter).Sprint(g.Letter), g.GPA, g.Meaning)
	return nil
}

// renderValidation lists the items that are not valid under policy and
// returns how many there are.
func renderValidation(w io.Writer, p *palette, policy scoring.Policy, sess *model.Session) (int, error) {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rater", "Sheet", "Filled", "Missing items"})
	var (
		data    [][]string
		missing int
	)
	for _, r := range sess.Raters {
		for _, sh := range []struct {
			id    model.SheetID
			sheet model.ScoreSheet
		}{{model.Sheet1, r.Sheet1}, {model.Sheet2, r.Sheet2}} {
			gaps := missingItems(policy, sh.sheet)
			missing += len(gaps)
			cell := p.good.Sprint("none")
			if len(gaps) > 0 {
				cell = p.bad.Sprint(joinItems(gaps, len(sh.sheet)))
			}
			data = append(data, []string{
				r.Name,
				string(sh.id),
				fmt.Sprintf("%d/%d", len(sh.sheet)-len(gaps), len(sh.sheet)),
				cell,
			})
		}
	}
	if err := table.Bulk(data); err != nil {
		return missing, err
	}
	if err := table.Render(); err != nil {
		return missing, err
	}

	if missing == 0 {
		fmt.Fprintf(w, "%s all %d items hold valid scores (policy %s)\n", p.good.Sprint("OK:"), model.TotalItems, policy)
	} else {
		fmt.Fprintf(w, "%s %d of %d items missing (policy %s)\n", p.bad.Sprint("INCOMPLETE:"), missing, model.TotalItems, policy)
	}
	return missing, nil
}

// missingItems returns the 1-based numbers of invalid entries.
func missingItems(policy scoring.Policy, sh model.ScoreSheet) []int {
	var out []int
	for i, v := range sh {
		if !policy.IsValidScore(float64(v)) {
			out = append(out, i+1)
		}
	}
	return out
}

func joinItems(items []int, total int) string {
	if len(items) == total {
		return "all"
	}
	parts := make([]string, len(items))
	for i, n := range items {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
