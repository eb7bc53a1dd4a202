// Package listing renders instruction lists as aligned text tables.
package listing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/speakeasy-api/jaxrsflow"
)

// Column names accepted in Config.Columns.
const (
	ColumnIndex       = "index"
	ColumnInstruction = "instruction"
	ColumnPops        = "pops"
	ColumnPushes      = "pushes"
	ColumnDepth       = "depth"
	ColumnTargets     = "targets"
)

var validColumns = []string{
	ColumnIndex,
	ColumnInstruction,
	ColumnPops,
	ColumnPushes,
	ColumnDepth,
	ColumnTargets,
}

var headers = map[string]string{
	ColumnIndex:       "#",
	ColumnInstruction: "INSTRUCTION",
	ColumnPops:        "POP",
	ColumnPushes:      "PUSH",
	ColumnDepth:       "DEPTH",
	ColumnTargets:     "TARGETS",
}

type Config struct {
	// Columns to print, in order. Empty means all columns.
	Columns []string
	// NoHeader drops the header line.
	NoHeader bool
}

// ValidateConfig normalizes column names and rejects unknown ones.
func ValidateConfig(cfg Config) (Config, error) {
	if len(cfg.Columns) == 0 {
		cfg.Columns = append([]string(nil), validColumns...)
		return cfg, nil
	}
	cols := make([]string, len(cfg.Columns))
	for i, c := range cfg.Columns {
		valid := false
		for _, v := range validColumns {
			if strings.EqualFold(strings.TrimSpace(c), v) {
				cols[i] = v
				valid = true
			}
		}
		if !valid {
			return cfg, fmt.Errorf("invalid column %q; valid columns: %s", c, strings.Join(validColumns, ", "))
		}
	}
	cfg.Columns = cols
	return cfg, nil
}

// Format renders code with one row per instruction.
func Format(code []jaxrsflow.Instruction, cfg Config) (string, error) {
	cfg, err := ValidateConfig(cfg)
	if err != nil {
		return "", err
	}

	depths := StackDepths(code)
	rows := make([][]string, 0, len(code)+1)
	if !cfg.NoHeader {
		head := make([]string, len(cfg.Columns))
		for i, c := range cfg.Columns {
			head[i] = headers[c]
		}
		rows = append(rows, head)
	}
	for i, ins := range code {
		row := make([]string, len(cfg.Columns))
		for j, c := range cfg.Columns {
			row[j] = cell(c, i, ins, depths[i])
		}
		rows = append(rows, row)
	}

	widths := make([]int, len(cfg.Columns))
	for _, row := range rows {
		for j, v := range row {
			widths[j] = max(widths[j], runewidth.StringWidth(v))
		}
	}

	var b strings.Builder
	for _, row := range rows {
		var line strings.Builder
		for j, v := range row {
			if j > 0 {
				line.WriteString("  ")
			}
			if numeric(cfg.Columns[j]) {
				line.WriteString(runewidth.FillLeft(v, widths[j]))
			} else {
				line.WriteString(runewidth.FillRight(v, widths[j]))
			}
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func cell(column string, idx int, ins jaxrsflow.Instruction, depth int) string {
	switch column {
	case ColumnIndex:
		return strconv.Itoa(idx)
	case ColumnInstruction:
		return ins.String()
	case ColumnPops:
		return strconv.Itoa(ins.Pops())
	case ColumnPushes:
		return strconv.Itoa(ins.Pushes())
	case ColumnDepth:
		if depth < 0 {
			return "-"
		}
		return strconv.Itoa(depth)
	case ColumnTargets:
		t := ins.Targets()
		if len(t) == 0 {
			return ""
		}
		parts := make([]string, len(t))
		for i, v := range t {
			parts[i] = strconv.Itoa(v)
		}
		return strings.Join(parts, ",")
	}
	return ""
}

func numeric(column string) bool {
	switch column {
	case ColumnIndex, ColumnPops, ColumnPushes, ColumnDepth:
		return true
	}
	return false
}

// StackDepths returns the operand stack depth after each instruction, or -1
// for instructions no path reaches. Exception handlers start at depth zero.
func StackDepths(code []jaxrsflow.Instruction) []int {
	before := make([]int, len(code))
	after := make([]int, len(code))
	for i := range code {
		before[i] = -1
		after[i] = -1
	}

	var queue []int
	visit := func(i, depth int) {
		if i < 0 || i >= len(code) || before[i] >= 0 {
			return
		}
		before[i] = depth
		queue = append(queue, i)
	}
	if len(code) > 0 {
		visit(0, 0)
	}
	for i, ins := range code {
		if ins.Kind() == jaxrsflow.KindExceptionHandler {
			visit(i, 0)
		}
	}

	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		ins := code[i]
		d := max(before[i]+ins.Delta(), 0)
		after[i] = d

		for _, t := range ins.Targets() {
			visit(t, d)
		}
		switch ins.Kind() {
		case jaxrsflow.KindReturn, jaxrsflow.KindThrow, jaxrsflow.KindJump, jaxrsflow.KindSwitch:
			continue
		}
		if i+1 < len(code) && code[i+1].Kind() != jaxrsflow.KindExceptionHandler {
			visit(i+1, d)
		}
	}
	return after
}
