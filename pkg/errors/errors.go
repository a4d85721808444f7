// Package errors はパイプライン全体のエラーハンドリングと警告システムを提供します。
// 致命的でない事象（非収束、未定義の指標）は警告として流れ、構造化された
// エラー型がzerologのイベントにそのまま載ります。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("graincv-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はgraincv全体の警告ハンドラを設定します。
// これにより、ConvergenceWarningなどのカスタム警告の処理方法を制御できます。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが利用可能な場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	// zerologが設定されている場合は優先的に使用
	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	// フォールバック: 従来のハンドラ
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// ConvergenceWarning は最適化アルゴリズムが収束しなかった場合に発生する警告です。
// クロスバリデーションの1セルで収束しなかった候補は警告のみで、致命的ではありません。
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iter or adjusting parameters.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning は新しいConvergenceWarningを作成します。
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// UndefinedMetricWarning は評価指標が計算できない場合に発生する警告です。
// 例えば、適合率(precision)を計算する際に、陽性クラスの予測が一つもなかった場合など。
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64 // この条件で返される値
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s.", w.Metric, w.Result, w.Condition)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result).
		Str("type", "UndefinedMetricWarning")
}

// NewUndefinedMetricWarning は新しいUndefinedMetricWarningを作成します。
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` や `Transform` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("graincv: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("graincv: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
// `ValueError`よりも具体的なバリデーションロジックの失敗を示します。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("graincv: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("graincv: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	パイプライン固有のエラー型
//
// ===========================================================================

// DataSchemaError はロードしたテーブルが期待するスキーマを満たさない場合のエラーです。
// 欠損した列、型の不一致、許可されていないラベル値などを示します。致命的で、
// パイプライン全体を中断します。
type DataSchemaError struct {
	Path    string // 読み込んだファイル（省略可）
	Column  string // 問題のある列名（省略可）
	Row     int    // 問題のある行番号（1始まり、0は行に紐付かない）
	Message string
}

func (e *DataSchemaError) Error() string {
	switch {
	case e.Column != "" && e.Row > 0:
		return fmt.Sprintf("graincv: data schema violation in %q, column %q, row %d: %s", e.Path, e.Column, e.Row, e.Message)
	case e.Column != "":
		return fmt.Sprintf("graincv: data schema violation in %q, column %q: %s", e.Path, e.Column, e.Message)
	default:
		return fmt.Sprintf("graincv: data schema violation in %q: %s", e.Path, e.Message)
	}
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DataSchemaError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("path", e.Path).
		Str("column", e.Column).
		Int("row", e.Row).
		Str("message", e.Message).
		Str("type", "DataSchemaError")
}

// NewDataSchemaError は新しいDataSchemaErrorを作成し、スタックトレースを付与します。
func NewDataSchemaError(path, column string, row int, message string) error {
	err := &DataSchemaError{Path: path, Column: column, Row: row, Message: message}
	return errors.WithStack(err)
}

// PartitionError は層化分割に必要なサンプル数が不足している場合のエラーです。
type PartitionError struct {
	Class    string  // サンプル不足のクラス
	Count    int     // そのクラスの実際のサンプル数
	Required int     // 要求された粒度に必要な最小サンプル数
	Fraction float64 // 要求された分割比率
}

func (e *PartitionError) Error() string {
	if e.Fraction > 0 {
		return fmt.Sprintf("graincv: cannot stratify class %q: %d samples, need at least %d for fraction %.3f",
			e.Class, e.Count, e.Required, e.Fraction)
	}
	return fmt.Sprintf("graincv: cannot stratify class %q: %d samples, need at least %d for the requested folds",
		e.Class, e.Count, e.Required)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *PartitionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("class", e.Class).
		Int("count", e.Count).
		Int("required", e.Required).
		Float64("fraction", e.Fraction).
		Str("type", "PartitionError")
}

// NewPartitionError は新しいPartitionErrorを作成し、スタックトレースを付与します。
func NewPartitionError(class string, count, required int, fraction float64) error {
	err := &PartitionError{Class: class, Count: count, Required: required, Fraction: fraction}
	return errors.WithStack(err)
}

// FittingFailureError は1つのfold-repeatで全ての候補パラメータの学習が失敗した
// 場合のエラーです。そのモデルファミリのチューニングは中断されますが、他の
// ファミリが成功していれば比較は継続できます。
type FittingFailureError struct {
	Family     string
	Repeat     int
	Fold       int
	Candidates int // 失敗した候補数
}

func (e *FittingFailureError) Error() string {
	return fmt.Sprintf("graincv: tuning %s: all %d candidates failed in repeat %d, fold %d",
		e.Family, e.Candidates, e.Repeat, e.Fold)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *FittingFailureError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("family", e.Family).
		Int("repeat", e.Repeat).
		Int("fold", e.Fold).
		Int("candidates", e.Candidates).
		Str("type", "FittingFailure")
}

// NewFittingFailureError は新しいFittingFailureErrorを作成し、スタックトレースを付与します。
func NewFittingFailureError(family string, repeat, fold, candidates int) error {
	err := &FittingFailureError{Family: family, Repeat: repeat, Fold: fold, Candidates: candidates}
	return errors.WithStack(err)
}

// MismatchedResamplingPlanError は異なるfold構造でチューニングされたモデル同士を
// 比較しようとした場合のエラーです。比較ステージで致命的です。
type MismatchedResamplingPlanError struct {
	FamilyA      string
	FamilyB      string
	FingerprintA string
	FingerprintB string
}

func (e *MismatchedResamplingPlanError) Error() string {
	return fmt.Sprintf("graincv: cannot compare %s and %s: resampling plans differ (%s vs %s)",
		e.FamilyA, e.FamilyB, e.FingerprintA, e.FingerprintB)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *MismatchedResamplingPlanError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("family_a", e.FamilyA).
		Str("family_b", e.FamilyB).
		Str("fingerprint_a", e.FingerprintA).
		Str("fingerprint_b", e.FingerprintB).
		Str("type", "MismatchedResamplingPlan")
}

// NewMismatchedResamplingPlanError は新しいMismatchedResamplingPlanErrorを作成し、
// スタックトレースを付与します。
func NewMismatchedResamplingPlanError(familyA, familyB, fpA, fpB string) error {
	err := &MismatchedResamplingPlanError{FamilyA: familyA, FamilyB: familyB, FingerprintA: fpA, FingerprintB: fpB}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrCancelled は探索が中断された場合のエラーです。
	ErrCancelled = New("search cancelled")
)
