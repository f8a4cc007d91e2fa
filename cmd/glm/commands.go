package main

import (
	"context"
	"fmt"
	"github.com/spf13/cobra"
	"go-ml.dev/pkg/glm/config"
	"go-ml.dev/pkg/glm/glm"
	"go-ml.dev/pkg/glm/model"
	"go-ml.dev/pkg/glm/model/folds"
	"go-ml.dev/pkg/glm/registry"
	"go-ml.dev/pkg/glm/server"
	"go-ml.dev/pkg/glm/tables"
	"go-ml.dev/pkg/iokit"
	"go-ml.dev/pkg/zorros/zlog"
	"go-ml.dev/pkg/zorros/zorros"
	"os"
	"os/signal"
)

var (
	configFile string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "glm",
	Short:         "Train generalized linear models and keep them in a registry",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		if cfg, err = config.Load(configFile); err != nil {
			return err
		}
		zlog.Config{Name: "glm", Verbose: cfg.Logger.Verbose, LogFile: cfg.Logger.File}.Init()
		return nil
	},
}

func openRegistry(ctx context.Context) (*registry.Registry, error) {
	var store registry.Store
	if cfg.Registry.DB != "" {
		s, err := registry.OpenSQLite(cfg.Registry.DB)
		if err != nil {
			return nil, err
		}
		store = s
	}
	r := registry.New(store, cfg.Registry.Dir)
	if err := r.Load(ctx); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

var trainFlags struct {
	modelID        string
	family         string
	nfolds         int
	foldAssignment string
	keepCVPreds    bool
	x              []int
	y              int
	lambda         float64
	standardize    bool
	allLevels      bool
	noIntercept    bool
	coefficients   string
}

var trainCmd = &cobra.Command{
	Use:   "train <training-frame.csv>",
	Short: "Train GLM on a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		frame, err := tables.ImportFile(args[0])
		if err != nil {
			return err
		}
		family, err := glm.ParseFamily(trainFlags.family)
		if err != nil {
			return err
		}
		assignment, err := folds.ParseAssignment(trainFlags.foldAssignment)
		if err != nil {
			return err
		}
		y := trainFlags.y
		if y < 0 {
			y = frame.Width() - 1
		}
		x := trainFlags.x
		if len(x) == 0 {
			x = glm.AllBut(frame, y)
		}
		p := glm.DefaultParameters()
		p.ModelID = trainFlags.modelID
		p.Family = family
		p.NFolds = trainFlags.nfolds
		p.FoldAssignment = assignment
		p.KeepCrossValidationPredictions = trainFlags.keepCVPreds
		p.X = x
		p.Y = y
		p.Lambda = trainFlags.lambda
		p.Standardize = trainFlags.standardize
		p.UseAllFactorLevels = trainFlags.allLevels
		p.NoIntercept = trainFlags.noIntercept
		p.Seed = cfg.Training.Seed
		p.MaxIterations = cfg.Training.MaxIterations

		r, err := openRegistry(ctx)
		if err != nil {
			return err
		}
		defer r.Close()
		opts := []glm.Option{glm.WithRegistry(r)}
		if cfg.Logger.Verbose {
			opts = append(opts, glm.WithVerbose(func(line string) { zlog.Info(line) }))
		}
		if trainFlags.coefficients != "" {
			opts = append(opts, glm.WithCoefficientsFile(iokit.File(trainFlags.coefficients)))
		}
		m, err := glm.Train(ctx, frame, p, opts...)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), m.Summary())
		fmt.Fprintln(cmd.OutOrStdout(), "Wow")
		return nil
	},
}

var predictFlags struct {
	model        string
	coefficients string
}

func predictionModel(ctx context.Context) (model.PredictionModel, error) {
	if predictFlags.coefficients != "" {
		return glm.LoadCoefficients(iokit.File(predictFlags.coefficients))
	}
	if predictFlags.model == "" {
		return nil, zorros.New("--model or --coefficients is required")
	}
	r, err := openRegistry(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	e, err := r.Lookup(predictFlags.model)
	if err != nil {
		return nil, err
	}
	if m, ok := e.Model.(model.PredictionModel); ok {
		return m, nil
	}
	if e.Artifact == "" {
		return nil, zorros.Errorf("model `%v` has no artifact", e.Key.Name)
	}
	return glm.Load(iokit.File(e.Artifact))
}

var predictCmd = &cobra.Command{
	Use:   "predict <frame.csv>",
	Short: "Predict the response for every row and write the frame with the predict column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := predictionModel(cmd.Context())
		if err != nil {
			return err
		}
		frame, err := tables.ImportFile(args[0])
		if err != nil {
			return err
		}
		pred, err := m.Predict(frame)
		if err != nil {
			return err
		}
		out, err := frame.With("predict", pred)
		if err != nil {
			return err
		}
		return out.WriteCSV(cmd.OutOrStdout())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the model registry over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer r.Close()
		zlog.Infof("listening on %v", cfg.Server.Listen)
		return server.New(r, cfg.Logger.Verbose).Router().Run(cfg.Server.Listen)
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List registered models",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer r.Close()
		for _, e := range r.List() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%q\n", e.Created.Format("2006-01-02T15:04:05Z"), e.Algo, e.Key.Key, e.Key.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "yaml configuration file")

	f := trainCmd.Flags()
	f.StringVar(&trainFlags.modelID, "model-id", "", "model identifier, any text")
	f.StringVar(&trainFlags.family, "family", "gaussian", "gaussian, binomial, poisson or gamma")
	f.IntVar(&trainFlags.nfolds, "nfolds", 0, "cross-validation folds count, 0 disables cross-validation")
	f.StringVar(&trainFlags.foldAssignment, "fold-assignment", "AUTO", "AUTO, Random, Modulo or Stratified")
	f.BoolVar(&trainFlags.keepCVPreds, "keep-cross-validation-predictions", false, "keep holdout predictions of cross-validation models")
	f.IntSliceVar(&trainFlags.x, "x", nil, "predictor column indices, all but y if empty")
	f.IntVar(&trainFlags.y, "y", -1, "response column index, the last column if negative")
	f.Float64Var(&trainFlags.lambda, "lambda", 0, "L2 regularization strength")
	f.BoolVar(&trainFlags.standardize, "standardize", true, "standardize predictors")
	f.BoolVar(&trainFlags.allLevels, "use-all-factor-levels", false, "encode the first level of categorical predictors too")
	f.BoolVar(&trainFlags.noIntercept, "no-intercept", false, "fit without intercept")
	f.StringVar(&trainFlags.coefficients, "coefficients", "", "file to write coefficients of the best iteration")

	f = predictCmd.Flags()
	f.StringVar(&predictFlags.model, "model", "", "registered model name or storage key")
	f.StringVar(&predictFlags.coefficients, "coefficients", "", "coefficients file written by train")

	rootCmd.AddCommand(trainCmd, predictCmd, serveCmd, modelsCmd)
}
