package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/fapiaoflow/fapiaoflow/internal/engine"
)

// summaryDurationUnit rounds the displayed run duration.
const summaryDurationUnit = time.Millisecond

// RenderSummary formats a completed run for terminal display.
func RenderSummary(summary *engine.Summary) string {
	var b strings.Builder

	b.WriteString(SuccessStyle.Render("✅ 合并处理完成"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "发票条目: %d\n", summary.EntriesEmitted)
	fmt.Fprintf(&b, "源数据行: %d\n", summary.RowsRead)
	fmt.Fprintf(&b, "分组总数: %d", summary.GroupCount)
	if summary.SkippedGroups > 0 {
		fmt.Fprintf(&b, "  %s", WarningStyle.Render(fmt.Sprintf("(零金额跳过 %d)", summary.SkippedGroups)))
	}
	b.WriteString("\n")

	if summary.OutputPath != "" {
		fmt.Fprintf(&b, "输出文件: %s\n", summary.OutputPath)
	} else {
		b.WriteString(SubtleStyle.Render("试运行，未保存文件") + "\n")
	}

	fmt.Fprintf(&b, "%s\n", SubtleStyle.Render(fmt.Sprintf("run %s, %s", summary.RunID, summary.Duration.Round(summaryDurationUnit))))

	return BoxStyle.Render(b.String())
}

// RenderError formats a failed run for terminal display. The full error
// chain is kept so the user sees which stage failed and why.
func RenderError(err error) string {
	return ErrorStyle.Render(fmt.Sprintf("❌ %v", err))
}
