package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/optimizer"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/roster"
	"github.com/tidwall/gjson"
)

const maxRuns = 16

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

type seat struct {
	Position int         `json:"position"`
	Side     domain.Side `json:"side"`
	Name     string      `json:"name"`
	ErgScore float64     `json:"ergScore"`
}

type lineupResponse struct {
	Cost       float64         `json:"cost"`
	Boats      [][]seat        `json:"boats"`
	Unassigned []string        `json:"unassigned"`
	Stats      optimizer.Stats `json:"stats"`
	Report     string          `json:"report"`
	Partial    bool            `json:"partial"` // 超时前未跑完，返回目前的最优结果
}

// request 为已经解析并校验过的请求
type request struct {
	athletes  []*domain.Athlete
	boatType  int
	multiBoat bool
	runs      int
	params    optimizer.Parameters
	weights   map[string]any
}

func parseRequest(body string) (*request, error) {
	if !gjson.Valid(body) {
		return nil, errors.New("invalid JSON")
	}
	doc := gjson.Parse(body)

	rosterJSON := doc.Get("roster")
	if !rosterJSON.Exists() {
		return nil, errors.New("missing roster field")
	}
	athletes, err := roster.Parse([]byte(rosterJSON.Raw), doc.Get("convert6k").Bool())
	if err != nil {
		return nil, err
	}

	req := &request{
		athletes:  athletes,
		boatType:  int(doc.Get("boatType").Int()),
		multiBoat: doc.Get("multiBoat").Bool(),
		runs:      int(doc.Get("runs").Int()),
	}
	if req.boatType == 0 {
		req.boatType = 8
	}
	if !domain.ValidBoatSize(req.boatType) {
		return nil, domain.ErrInvalidBoatSize
	}
	if req.runs < 1 {
		req.runs = 1
	}
	if req.runs > maxRuns {
		req.runs = maxRuns
	}

	bag, _ := doc.Get("parameters").Value().(map[string]any)
	req.params, err = optimizer.ParseParameters(bag)
	if err != nil {
		return nil, err
	}

	req.weights, _ = doc.Get("weights").Value().(map[string]any)
	return req, nil
}

func (req *request) factory() (optimizer.Factory, error) {
	if req.multiBoat {
		w, err := optimizer.ParseMultiBoatWeights(req.weights)
		if err != nil {
			return nil, err
		}
		return func(seed int64) (optimizer.Optimizer, error) {
			return optimizer.NewMultiBoat(req.athletes, req.boatType, req.params, w, rand.New(rand.NewSource(seed)))
		}, nil
	}

	w, err := optimizer.ParseSingleBoatWeights(req.weights)
	if err != nil {
		return nil, err
	}
	return func(seed int64) (optimizer.Optimizer, error) {
		return optimizer.NewSingleBoat(req.athletes, req.boatType, req.params, w, rand.New(rand.NewSource(seed)))
	}, nil
}

func handler(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return errResp(http.StatusBadRequest, "invalid base64 body")
		}
		body = string(decoded)
	}

	req, err := parseRequest(body)
	if err != nil {
		return errResp(http.StatusBadRequest, err.Error())
	}
	factory, err := req.factory()
	if err != nil {
		return errResp(http.StatusBadRequest, err.Error())
	}

	res, best, err := optimizer.RunBest(ctx, req.runs, time.Now().UnixNano(), factory)
	partial := err != nil && res != nil && errors.Is(err, context.DeadlineExceeded)
	if err != nil && !partial {
		switch {
		case errors.Is(err, optimizer.ErrNotEnoughAthletes):
			return errResp(http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, context.DeadlineExceeded):
			return errResp(http.StatusGatewayTimeout, err.Error())
		default:
			return errResp(http.StatusInternalServerError, err.Error())
		}
	}

	resp := lineupResponse{
		Cost:       res.Cost,
		Boats:      make([][]seat, len(res.Boats)),
		Unassigned: make([]string, len(res.Unassigned)),
		Stats:      res.Stats,
		Report:     best.Report(),
		Partial:    partial,
	}
	for i, boat := range res.Boats {
		resp.Boats[i] = make([]seat, len(boat))
		for j, a := range boat {
			resp.Boats[i][j] = seat{Position: j + 1, Side: domain.SeatSide(j + 1), Name: a.Name, ErgScore: a.ErgScore}
		}
	}
	for i, a := range res.Unassigned {
		resp.Unassigned[i] = a.Name
	}

	respJSON, _ := json.Marshal(resp)
	return events.LambdaFunctionURLResponse{StatusCode: http.StatusOK, Headers: jsonHeader, Body: string(respJSON)}, nil
}

func errResp(code int, msg string) (events.LambdaFunctionURLResponse, error) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}
