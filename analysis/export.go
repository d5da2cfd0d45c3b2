package analysis

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/AndrewBMartin/MetaModel/backend"
	"github.com/AndrewBMartin/MetaModel/metamodel"
)

// WriteSolution exports the solved values of the harvest and age variable
// families to path as two stacked delimited sections. Each row carries the
// fields parsed from the variable's structured name plus its solution value.
func WriteSolution(m *metamodel.MetaModel, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create solution file")
	}
	defer f.Close()

	w := csv.NewWriter(f)

	sections := []struct {
		title  string
		family string
	}{
		{"Harvest data", "harv"},
		{"Age data", "age"},
	}

	for i, section := range sections {
		if i > 0 {
			w.Write([]string{""})
		}
		if err := writeSection(w, m, section.title, section.family); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "write solution file")
	}
	return f.Close()
}

func writeSection(w *csv.Writer, m *metamodel.MetaModel, title, family string) error {
	vars, err := m.Model().Variables(family)
	if err != nil {
		return err
	}

	w.Write([]string{title})
	w.Write([]string{"category", "region", "period", "value"})

	for _, v := range vars {
		fields := backend.Fields(v.Name)
		row := make([]string, 0, len(fields)+1)
		for _, field := range fields {
			row = append(row, strings.TrimSpace(field))
		}
		row = append(row, formatValue(v.Value))
		w.Write(row)
	}
	return nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
