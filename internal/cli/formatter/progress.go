package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a bar like [███░] 3/4. The bar is green once
// complete, yellow when started and red when empty. A zero target shows
// the bare count.
func RenderProgress(count, target, width int, complete bool) string {
	style := StyleRed
	switch {
	case complete:
		style = StyleGreen
	case count > 0:
		style = StyleYellow
	}
	if target <= 0 {
		return style.Render(fmt.Sprintf("%d placed", count))
	}
	width = max(width, 2)

	filled := min(count*width/target, width)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)
	return fmt.Sprintf("[%s] %d/%d", style.Render(bar), count, target)
}
