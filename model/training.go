package model

import (
	"context"
	"fmt"
	"go-ml.dev/pkg/glm/fu"
	"go-ml.dev/pkg/iokit"
	"go-ml.dev/pkg/zorros/zlog"
	"go-ml.dev/pkg/zorros/zorros"
	"io"
)

/*
Training is the default implementation of unified training interface
*/
type Training struct {
	Context      context.Context // optional, training is aborted when it's done
	Iterations   int             // maximum iterations
	Score        Score           // score function, DevianceScore by default
	ScoreHistory int             // possible count of forehead training with lower score
	ModelFile    iokit.Output    // file to store final model
	Verbose      func(string)    // print function
}

type training struct {
	Training
	stash *ModelStash
	done  bool
}

type workout struct {
	iteration int
	training  *training
	perflog   [][2]Metrics
	scorlog   []float64
	models    []Memorizer
}

const DefaultScoreHistory = 3

func (t Training) Workout() Workout {
	x := &training{
		Training: t,
		stash:    NewStash(fu.Fnzi(t.ScoreHistory, DefaultScoreHistory)+1, "model-training-*.yaml.xz"),
	}
	if x.Score == nil {
		x.Score = DevianceScore
	}
	if x.Context == nil {
		x.Context = context.Background()
	}
	return &workout{iteration: 0, training: x}
}

func (w *workout) Close() error {
	return w.training.stash.Close()
}

func (w *workout) Iteration() int {
	return w.iteration
}

func (w *workout) Context() context.Context {
	return w.training.Context
}

func (w *workout) report(j int) (report *Report, err error) {
	report = &Report{}
	histlen := fu.Fnzi(w.training.ScoreHistory, DefaultScoreHistory)
	for _, p := range w.perflog {
		report.History = append(report.History, p[0], p[1])
	}
	if j < 0 {
		l := fu.Mini(len(w.scorlog), histlen+1)
		lj := len(w.scorlog) - l
		j = fu.Indmaxd(w.scorlog[lj:]) + lj
	}
	report.TheBest = j
	report.Train = w.perflog[j][0]
	report.Test = w.perflog[j][1]
	report.Score = w.scorlog[j]
	report.Model = w.models[j]
	if w.training.ModelFile != nil {
		rd, e := w.training.stash.Reader(j)
		if e != nil {
			err = zorros.Trace(e)
			return
		}
		wh, e := w.training.ModelFile.Create()
		if e != nil {
			err = zorros.Trace(e)
			return
		}
		defer wh.End()
		if _, e = io.Copy(wh, rd); e != nil {
			err = zorros.Trace(e)
			return
		}
		if e = wh.Commit(); e != nil {
			err = zorros.Trace(e)
			return
		}
	}
	return
}

func (w *workout) Complete(m Memorizer, train, test Metrics, converged bool) (report *Report, done bool, err error) {
	if w.training.done {
		return nil, true, zorros.New("training is already done")
	}
	histlen := fu.Fnzi(w.training.ScoreHistory, DefaultScoreHistory)
	maxiter := fu.Maxi(w.training.Iterations, 1)
	score := w.training.Score(train, test)
	w.scorlog = append(w.scorlog, score)
	w.perflog = append(w.perflog, [2]Metrics{train, test})
	w.models = append(w.models, m)
	if w.training.ModelFile != nil {
		o, e := w.training.stash.Output(w.iteration)
		if e != nil {
			err = zorros.Wrapf(e, "failed to create stash for model: %v", e.Error())
			return
		}
		if err = Memorize(o, m); err != nil {
			return
		}
	}
	if converged {
		w.training.done = true
		done = true
		report, err = w.report(w.iteration)
	} else if w.iteration == maxiter-1 || (w.iteration >= histlen && fu.Indmaxd(w.scorlog[len(w.scorlog)-histlen-1:]) == 0) {
		w.training.done = true
		done = true
		report, err = w.report(-1)
	}
	w.Verbose(fmt.Sprintf(
		"[%3d] deviance: %.5f/%.5f, rmse: %.5f/%.5f, score: %.5f",
		w.Iteration(), train.MeanResidualDeviance, test.MeanResidualDeviance, train.RMSE, test.RMSE, score))
	return
}

func (w *workout) Verbose(s string) {
	if w.training.Verbose != nil {
		w.training.Verbose(s)
	}
}

func (w *workout) Next() Workout {
	if w.training.done {
		zlog.Warning("training is already done")
		return nil
	}
	return &workout{
		iteration: w.iteration + 1,
		training:  w.training,
		scorlog:   w.scorlog,
		perflog:   w.perflog,
		models:    w.models,
	}
}
