// Package export renders class lists and evaluations as XLSX workbooks.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/core/evaluation"
	"github.com/gakuseki/gakuseki/core/student"
)

// ContentType of the workbooks written by this package.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const defaultSheet = "Sheet1"

var (
	classListHeader  = []interface{}{"出席番号", "学籍番号", "氏名", "ふりがな", "性別", "状態"}
	evaluationHeader = []interface{}{
		"出席番号", "氏名", "試験(%)", "課題(%)", "出席", "観点", "評定", "前期評定", "学年評定",
	}
)

// ClassSheet is the roster of one homeroom class.
type ClassSheet struct {
	Class    core.ClassRef
	Students []student.Student
}

type workbook struct {
	f      *excelize.File
	bold   int
	sheets int
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "creating header style")
	}
	return &workbook{f: f, bold: bold}, nil
}

// sheet adds a sheet holding header on its first row. The first call renames the default sheet.
func (wb *workbook) sheet(name string, header []interface{}) error {
	if wb.sheets == 0 {
		if err := wb.f.SetSheetName(defaultSheet, name); err != nil {
			return errors.Wrapf(err, "renaming sheet %s", name)
		}
	} else if _, err := wb.f.NewSheet(name); err != nil {
		return errors.Wrapf(err, "adding sheet %s", name)
	}
	wb.sheets++

	if err := wb.f.SetSheetRow(name, "A1", &header); err != nil {
		return errors.Wrapf(err, "writing header of %s", name)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := wb.f.SetCellStyle(name, "A1", last, wb.bold); err != nil {
		return errors.Wrapf(err, "styling header of %s", name)
	}
	return wb.f.SetColWidth(name, "B", "B", 18)
}

func (wb *workbook) row(sheet string, n int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	return errors.Wrapf(wb.f.SetSheetRow(sheet, cell, &values), "writing row %d of %s", n, sheet)
}

func (wb *workbook) write(w io.Writer) error {
	defer wb.f.Close()
	return errors.Wrap(wb.f.Write(w), "writing workbook")
}

// attendNo renders numeric seat numbers as numbers so the column sorts naturally.
func attendNo(n student.AttendNo) interface{} {
	if i, ok := n.Int(); ok {
		return i
	}
	return string(n)
}

// ClassList writes one sheet per class, named after the class (e.g. "全-1-1組").
func ClassList(w io.Writer, classes []ClassSheet) error {
	if len(classes) == 0 {
		return core.NewNotFoundError("no class to export")
	}
	wb, err := newWorkbook()
	if err != nil {
		return err
	}
	for _, cs := range classes {
		name := cs.Class.ID()
		if err := wb.sheet(name, classListHeader); err != nil {
			_ = wb.f.Close()
			return err
		}
		for i, s := range cs.Students {
			values := []interface{}{attendNo(s.AttendNo), s.ID, s.Name, s.Kana, string(s.Gender), string(s.Status)}
			if err := wb.row(name, i+2, values); err != nil {
				_ = wb.f.Close()
				return err
			}
		}
	}
	return wb.write(w)
}

func grade(g *int) interface{} {
	if g == nil {
		return ""
	}
	return *g
}

func zenki(r *evaluation.Result) interface{} {
	if r == nil {
		return ""
	}
	return r.FiveScale
}

// Evaluation writes the evaluation of a class in one subject on a single sheet.
func Evaluation(w io.Writer, class core.ClassRef, sy int, ce evaluation.ClassEvaluation) error {
	wb, err := newWorkbook()
	if err != nil {
		return err
	}
	name := class.ID()
	if err := wb.sheet(name, evaluationHeader); err != nil {
		_ = wb.f.Close()
		return err
	}
	title := fmt.Sprintf("%s %s %s", core.NendoLabel(sy), name, ce.Subject.Name)
	if err := wb.f.SetCellValue(name, "K1", title); err != nil {
		_ = wb.f.Close()
		return errors.Wrap(err, "writing title")
	}

	for i, id := range ce.Order {
		se := ce.Students[id]
		if se == nil {
			continue
		}
		p := se.Percentages
		values := []interface{}{
			attendNo(se.AttendNo),
			se.Name,
			p.Exam,
			p.Tasks,
			strconv.Itoa(p.Numbers.Present) + "/" + strconv.Itoa(p.Numbers.Total),
			se.Continuous.Kanten,
			se.Continuous.FiveScale,
			zenki(se.Zenki),
			grade(se.FinalGrade),
		}
		if err := wb.row(name, i+2, values); err != nil {
			_ = wb.f.Close()
			return err
		}
	}
	return wb.write(w)
}
