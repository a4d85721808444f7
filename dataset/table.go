// Package dataset は表形式データの読み込み、層化分割、リサンプリング計画を提供します。
//
// 対象は固定スキーマの小さな表（7つの連続形態特徴量＋3値のカテゴリラベル）で、
// 読み込み後のSampleは不変です。分割とfold割り当てはすべてシード付き乱数で
// 決定的に生成されます。
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/grainstat/graincv/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Schema は期待する列構成を定義する
type Schema struct {
	// Features は数値列の名前（この順序が特徴量インデックスになる）
	Features []string

	// Label はカテゴリラベル列の名前
	Label string

	// Classes は許可されるラベル値（この順序がクラスインデックスになる）
	Classes []string
}

// DefaultSchema は小麦種子データセットのスキーマを返す
func DefaultSchema() Schema {
	return Schema{
		Features: []string{
			"area",
			"perimeter",
			"compactness",
			"kernel_length",
			"kernel_width",
			"asymmetry",
			"groove_length",
		},
		Label:   "variety",
		Classes: []string{"Kama", "Rosa", "Canadian"},
	}
}

// Table は同一スキーマのSampleの順序付きコレクション
//
// 読み込み後は不変として扱うこと。FeaturesとLabelsは内部データを直接返すため、
// 呼び出し側で書き換えてはならない。
type Table struct {
	schema Schema
	x      *mat.Dense
	y      []int
}

// New は検証済みのTableを構築する。yはクラスインデックス。
func New(schema Schema, x *mat.Dense, y []int) (*Table, error) {
	r, c := x.Dims()
	if r == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "dataset.New")
	}
	if c != len(schema.Features) {
		return nil, errors.NewDimensionError("dataset.New", len(schema.Features), c, 1)
	}
	if len(y) != r {
		return nil, errors.NewDimensionError("dataset.New", r, len(y), 0)
	}
	for i, label := range y {
		if label < 0 || label >= len(schema.Classes) {
			return nil, errors.NewValidationError("y", "class index out of range at row "+strconv.Itoa(i), label)
		}
	}
	return &Table{schema: schema, x: x, y: y}, nil
}

// Load はCSVファイルからTableを読み込む
//
// 先頭行はヘッダで、スキーマの全列を（任意の順序で）含む必要がある。
// スキーマ違反はすべてDataSchemaErrorになる。
func Load(path string, schema Schema) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "dataset.Load")
	}
	defer file.Close()

	return read(file, path, schema)
}

func read(r io.Reader, path string, schema Schema) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.NewDataSchemaError(path, "", 0, "missing header row")
	}

	// 列名 → 位置
	position := make(map[string]int, len(header))
	for i, name := range header {
		position[strings.TrimSpace(name)] = i
	}

	featurePos := make([]int, len(schema.Features))
	for j, name := range schema.Features {
		p, ok := position[name]
		if !ok {
			return nil, errors.NewDataSchemaError(path, name, 0, "column not found in header")
		}
		featurePos[j] = p
	}
	labelPos, ok := position[schema.Label]
	if !ok {
		return nil, errors.NewDataSchemaError(path, schema.Label, 0, "column not found in header")
	}

	classIndex := make(map[string]int, len(schema.Classes))
	for i, name := range schema.Classes {
		classIndex[name] = i
	}

	var values []float64
	var labels []int
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, errors.NewDataSchemaError(path, "", row, "malformed CSV record: "+err.Error())
		}

		for j, p := range featurePos {
			if p >= len(record) {
				return nil, errors.NewDataSchemaError(path, schema.Features[j], row, "missing value")
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(record[p]), 64)
			if err != nil {
				return nil, errors.NewDataSchemaError(path, schema.Features[j], row, "not a number: "+record[p])
			}
			values = append(values, v)
		}

		if labelPos >= len(record) {
			return nil, errors.NewDataSchemaError(path, schema.Label, row, "missing value")
		}
		label := strings.TrimSpace(record[labelPos])
		cls, ok := classIndex[label]
		if !ok {
			return nil, errors.NewDataSchemaError(path, schema.Label, row, "unknown class value: "+label)
		}
		labels = append(labels, cls)
	}

	if len(labels) == 0 {
		return nil, errors.NewDataSchemaError(path, "", 0, "empty table")
	}

	x := mat.NewDense(len(labels), len(schema.Features), values)
	return New(schema, x, labels)
}

// NumSamples はサンプル数を返す
func (t *Table) NumSamples() int {
	r, _ := t.x.Dims()
	return r
}

// NumFeatures は特徴量の数を返す
func (t *Table) NumFeatures() int {
	_, c := t.x.Dims()
	return c
}

// NumClasses はクラス数を返す
func (t *Table) NumClasses() int { return len(t.schema.Classes) }

// FeatureNames は特徴量名を返す
func (t *Table) FeatureNames() []string { return t.schema.Features }

// ClassNames はクラス名を返す
func (t *Table) ClassNames() []string { return t.schema.Classes }

// Schema はスキーマを返す
func (t *Table) Schema() Schema { return t.schema }

// Features は特徴量行列を返す（書き換え禁止）
func (t *Table) Features() mat.Matrix { return t.x }

// Labels はクラスインデックスの列を返す（書き換え禁止）
func (t *Table) Labels() []int { return t.y }

// ClassCounts はクラスごとのサンプル数を返す
func (t *Table) ClassCounts() []int {
	counts := make([]int, len(t.schema.Classes))
	for _, label := range t.y {
		counts[label]++
	}
	return counts
}

// SelectFeatures は指定した列だけを残した新しいTableを返す
//
// スキーマの特徴量名も同じ選択で絞り込まれる。スクリーニングで決めた列集合を
// 学習・評価の両パーティションへ同一に適用するために使う。
func (t *Table) SelectFeatures(columns []int) (*Table, error) {
	r, c := t.x.Dims()
	if len(columns) == 0 {
		return nil, errors.NewValidationError("columns", "must keep at least one feature", columns)
	}
	names := make([]string, len(columns))
	x := mat.NewDense(r, len(columns), nil)
	for j, col := range columns {
		if col < 0 || col >= c {
			return nil, errors.NewValidationError("columns", "column index out of range", col)
		}
		names[j] = t.schema.Features[col]
		for i := 0; i < r; i++ {
			x.Set(i, j, t.x.At(i, col))
		}
	}
	schema := Schema{Features: names, Label: t.schema.Label, Classes: t.schema.Classes}
	return &Table{schema: schema, x: x, y: t.y}, nil
}

// Subset は指定した行からなる新しいTableを返す
func (t *Table) Subset(indices []int) *Table {
	_, c := t.x.Dims()
	x := mat.NewDense(len(indices), c, nil)
	y := make([]int, len(indices))
	for i, idx := range indices {
		for j := 0; j < c; j++ {
			x.Set(i, j, t.x.At(idx, j))
		}
		y[i] = t.y[idx]
	}
	return &Table{schema: t.schema, x: x, y: y}
}
