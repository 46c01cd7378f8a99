package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"google.golang.org/protobuf/types/known/structpb"
)

// renderStatus renders a status message as a two-column table. Nested
// structs are flattened with dotted keys.
func renderStatus(s *structpb.Struct) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Field", "Value"})

	for _, row := range statusRows("", s) {
		tw.AppendRow(table.Row{row[0], row[1]})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft},
	})
	return tw.Render()
}

func statusRows(prefix string, s *structpb.Struct) [][2]string {
	keys := make([]string, 0, len(s.GetFields()))
	for k := range s.GetFields() {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rows [][2]string
	for _, k := range keys {
		v := s.GetFields()[k]
		if nested := v.GetStructValue(); nested != nil {
			rows = append(rows, statusRows(prefix+k+".", nested)...)
			continue
		}
		rows = append(rows, [2]string{prefix + k, formatValue(v)})
	}
	return rows
}

// formatEvent renders a stream notification on one line.
func formatEvent(s *structpb.Struct) string {
	f := s.GetFields()
	var b strings.Builder
	fmt.Fprintf(&b, "#%s %s", formatValue(f["sequence_no"]), f["type"].GetStringValue())

	for _, k := range []string{"phase", "deck", "code"} {
		if v, ok := f[k]; ok {
			fmt.Fprintf(&b, " %s=%s", k, formatValue(v))
		}
	}
	if st := f["status"].GetStructValue(); st != nil {
		sf := st.GetFields()
		fmt.Fprintf(&b, " state=%s enabled=%s", sf["state"].GetStringValue(), formatValue(sf["enabled"]))
	}
	return b.String()
}

func formatValue(v *structpb.Value) string {
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		if k.StringValue == "" {
			return "-"
		}
		return k.StringValue
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64)
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue)
	default:
		return "-"
	}
}
