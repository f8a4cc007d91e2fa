package model

import (
	"github.com/ulikunitz/xz"
	"go-ml.dev/pkg/iokit"
	"go-ml.dev/pkg/zorros/zorros"
	"gopkg.in/yaml.v3"
	"io"
)

/*
Memorize writes the model snapshot as xz compressed yaml
*/
func Memorize(output iokit.Output, m Memorizer) (err error) {
	wh, err := iokit.Lzma2(output).Create()
	if err != nil {
		return zorros.Trace(err)
	}
	defer wh.End()
	enc := yaml.NewEncoder(wh)
	if err = enc.Encode(m.Memorize()); err != nil {
		return zorros.Wrapf(err, "failed to encode model: %v", err.Error())
	}
	if err = enc.Close(); err != nil {
		return zorros.Trace(err)
	}
	if err = wh.Commit(); err != nil {
		return zorros.Trace(err)
	}
	return nil
}

/*
Recall reads the model snapshot written by Memorize into v
*/
func Recall(rd io.Reader, v interface{}) error {
	xr, err := xz.NewReader(rd)
	if err != nil {
		return zorros.Wrapf(err, "model is not xz compressed: %v", err.Error())
	}
	if err = yaml.NewDecoder(xr).Decode(v); err != nil {
		return zorros.Wrapf(err, "failed to decode model: %v", err.Error())
	}
	return nil
}

/*
RecallInput opens input and reads the model snapshot into v
*/
func RecallInput(input iokit.Input, v interface{}) error {
	rd, err := input.Open()
	if err != nil {
		return zorros.Trace(err)
	}
	defer rd.Close()
	return Recall(rd, v)
}
