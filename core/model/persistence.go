package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/grainstat/graincv/pkg/errors"
)

// SaveModel は学習済み分類器をファイルに保存する
//
// 各ファミリは自パッケージのinitで具象型を gob.Register しておくこと。
//
// 使用例:
//
//	// チューニングで勝ったモデルを保存する
//	err := model.SaveModel(winner, "best.gob")
func SaveModel(clf Classifier, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "model: failed to create file")
	}
	defer file.Close()

	return SaveModelToWriter(clf, file)
}

// LoadModel はファイルから学習済み分類器を読み込む
//
// 使用例:
//
//	clf, err := model.LoadModel("best.gob")
func LoadModel(filename string) (Classifier, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "model: failed to open file")
	}
	defer file.Close()

	return LoadModelFromReader(file)
}

// SaveModelToWriter は学習済み分類器をio.Writerに保存する
func SaveModelToWriter(clf Classifier, w io.Writer) error {
	encoder := gob.NewEncoder(w)
	if err := encoder.Encode(&clf); err != nil {
		return errors.Wrap(err, "model: failed to encode classifier")
	}
	return nil
}

// LoadModelFromReader はio.Readerから学習済み分類器を読み込む
func LoadModelFromReader(r io.Reader) (Classifier, error) {
	var clf Classifier
	decoder := gob.NewDecoder(r)
	if err := decoder.Decode(&clf); err != nil {
		return nil, errors.Wrap(err, "model: failed to decode classifier")
	}
	return clf, nil
}
