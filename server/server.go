/*
Package server exposes model training and the model registry over HTTP.
Model identifiers travel percent-escaped in the path and may contain any characters.
*/
package server

import (
	"context"
	"github.com/gin-gonic/gin"
	"go-ml.dev/pkg/glm/glm"
	"go-ml.dev/pkg/glm/model"
	"go-ml.dev/pkg/glm/model/key"
	"go-ml.dev/pkg/glm/registry"
	"go-ml.dev/pkg/glm/tables"
	"go-ml.dev/pkg/iokit"
	"go-ml.dev/pkg/zorros/zlog"
	"golang.org/x/xerrors"
	"net/http"
	"strings"
	"time"
)

type Server struct {
	registry *registry.Registry
	verbose  bool
}

func New(r *registry.Registry, verbose bool) *Server {
	return &Server{registry: r, verbose: verbose}
}

/*
Router returns gin engine with all routes
*/
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	s.RegisterRoutes(r.Group("/3"))
	return r
}

func (s *Server) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/ModelBuilders/glm", s.TrainGLM)
	r.GET("/Models", s.ListModels)
	r.GET("/Models/*id", s.GetModel)
	r.DELETE("/Models/*id", s.DeleteModel)
	r.POST("/Predictions/*id", s.Predict)
}

type modelID struct {
	Name string `json:"name"`
	Key  string `json:"key"`
	URL  string `json:"URL"`
}

func toModelID(k key.Key) modelID {
	return modelID{Name: k.Name, Key: k.Key, URL: "/3/Models/" + k.PathEscape()}
}

type modelResponse struct {
	ModelID                           modelID            `json:"model_id"`
	Algo                              string             `json:"algo"`
	Created                           time.Time          `json:"created"`
	Family                            string             `json:"family,omitempty"`
	Coefficients                      map[string]float64 `json:"coefficients,omitempty"`
	TrainingMetrics                   *model.Metrics     `json:"training_metrics,omitempty"`
	CrossValidationMetrics            *model.Metrics     `json:"cross_validation_metrics,omitempty"`
	CrossValidationModels             []modelID          `json:"cross_validation_models,omitempty"`
	CrossValidationHoldoutPredictions *modelID           `json:"cross_validation_holdout_predictions_frame_id,omitempty"`
}

func toModelResponse(e registry.Entry, m *glm.Model) modelResponse {
	r := modelResponse{ModelID: toModelID(e.Key), Algo: e.Algo, Created: e.Created}
	if m == nil {
		return r
	}
	r.Family = m.Parameters.Family.String()
	r.Coefficients = map[string]float64{"Intercept": m.Coefficients.Intercept}
	for i, n := range m.Coefficients.Names {
		r.Coefficients[n] = m.Coefficients.Beta[i]
	}
	tm := m.TrainingMetrics
	r.TrainingMetrics = &tm
	r.CrossValidationMetrics = m.CrossValidationMetrics
	for _, x := range m.CrossValidationModels {
		r.CrossValidationModels = append(r.CrossValidationModels, toModelID(x.ID))
	}
	if m.CrossValidationHoldoutPredictions != nil {
		id := toModelID(m.CrossValidationHoldoutPredictions.ID)
		r.CrossValidationHoldoutPredictions = &id
	}
	return r
}

func pathID(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("id"), "/")
}

func mapError(c *gin.Context, err error) {
	switch {
	case xerrors.Is(err, registry.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case xerrors.Is(err, context.Canceled), xerrors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

// resolve returns the entry and the glm model, the model is recalled from artifact if required
func (s *Server) resolve(id string) (registry.Entry, *glm.Model, error) {
	e, err := s.registry.Lookup(id)
	if err != nil {
		return e, nil, err
	}
	if m, ok := e.Model.(*glm.Model); ok {
		return e, m, nil
	}
	if e.Artifact == "" || e.Algo != glm.Algo {
		return e, nil, nil
	}
	m, err := glm.Load(iokit.File(e.Artifact))
	if err != nil {
		return e, nil, err
	}
	return e, m, nil
}

type trainRequest struct {
	TrainingFrame string `json:"training_frame" binding:"required"`
	glm.Parameters
}

/*
TrainGLM imports the training frame and trains GLM. Negative y means the last column,
empty x means all columns except y.
*/
func (s *Server) TrainGLM(c *gin.Context) {
	req := trainRequest{Parameters: glm.DefaultParameters()}
	req.Y = -1
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	frame, err := tables.ImportFile(req.TrainingFrame)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := req.Parameters
	if p.Y < 0 {
		p.Y = frame.Width() - 1
	}
	if len(p.X) == 0 {
		p.X = glm.AllBut(frame, p.Y)
	}
	opts := []glm.Option{glm.WithRegistry(s.registry)}
	if s.verbose {
		opts = append(opts, glm.WithVerbose(func(line string) { zlog.Info(line) }))
	}
	m, err := glm.Train(c.Request.Context(), frame, p, opts...)
	if err != nil {
		mapError(c, err)
		return
	}
	e, err := s.registry.GetByKey(m.ID.Key)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, toModelResponse(e, m))
}

func (s *Server) ListModels(c *gin.Context) {
	es := s.registry.List()
	items := make([]modelResponse, 0, len(es))
	for _, e := range es {
		m, _ := e.Model.(*glm.Model)
		items = append(items, toModelResponse(e, m))
	}
	c.JSON(http.StatusOK, gin.H{"models": items})
}

func (s *Server) GetModel(c *gin.Context) {
	e, m, err := s.resolve(pathID(c))
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, toModelResponse(e, m))
}

func (s *Server) DeleteModel(c *gin.Context) {
	e, err := s.registry.Lookup(pathID(c))
	if err != nil {
		mapError(c, err)
		return
	}
	if err = s.registry.Remove(c.Request.Context(), e.Key.Name); err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"model_id": toModelID(e.Key)})
}

type predictRequest struct {
	Frame string `json:"frame" binding:"required"`
}

func (s *Server) Predict(c *gin.Context) {
	req := predictRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e, m, err := s.resolve(pathID(c))
	if err != nil {
		mapError(c, err)
		return
	}
	if m == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "model `" + e.Key.Name + "` is not available for prediction"})
		return
	}
	frame, err := tables.ImportFile(req.Frame)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pred, err := m.Predict(frame)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"model_id": toModelID(e.Key), "predict": pred})
}
