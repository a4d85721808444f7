package model

import (
	"bytes"
	"encoding/gob"
)

// EstimatorState はモデルの学習状態を表す
type EstimatorState int

const (
	// NotFitted はモデルが未学習の状態
	NotFitted EstimatorState = iota
	// Fitted はモデルが学習済みの状態
	Fitted
)

// BaseEstimator は全ての分類器の基底となる構造体
type BaseEstimator struct {
	state     EstimatorState
	nFeatures int
	nClasses  int
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted はモデルを学習済み状態に設定し、学習時の形状を記録する
func (e *BaseEstimator) SetFitted(nFeatures, nClasses int) {
	e.state = Fitted
	e.nFeatures = nFeatures
	e.nClasses = nClasses
}

// Reset はモデルを初期状態にリセットする
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
	e.nFeatures = 0
	e.nClasses = 0
}

// NumFeatures は学習時の特徴量数を返す（未学習なら0）
func (e *BaseEstimator) NumFeatures() int { return e.nFeatures }

// NumClasses は学習時のクラス数を返す（未学習なら0）
func (e *BaseEstimator) NumClasses() int { return e.nClasses }

// GobEncode は非公開の学習状態をgobで永続化できるようにする
func (e *BaseEstimator) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	for _, v := range []int{int(e.state), e.nFeatures, e.nClasses} {
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// GobDecode はGobEncodeで書き出した学習状態を復元する
func (e *BaseEstimator) GobDecode(data []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(data))
	var state, nFeatures, nClasses int
	for _, p := range []*int{&state, &nFeatures, &nClasses} {
		if err := dec.Decode(p); err != nil {
			return err
		}
	}
	e.state = EstimatorState(state)
	e.nFeatures = nFeatures
	e.nClasses = nClasses
	return nil
}
