package roster

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
	"github.com/tidwall/gjson"
)

var ErrInvalidRoster = errors.New("名单格式不正确")

// record 为名单文件中一名运动员的格式
type record struct {
	Name              string   `json:"name"`
	ErgScore          float64  `json:"erg_score"`
	SidePreference    string   `json:"side_preference"`
	Experience        string   `json:"experience"`
	AttendanceHistory []string `json:"attendance_history"`
	DaysSinceBoated   int32    `json:"days_since_boated"`
	Email             string   `json:"email,omitempty"`
}

type file struct {
	Rowers []record `json:"rowers"`
}

// entries 找到名单数组，支持 {"rowers": [...]}、{"athletes": [...]} 和裸数组三种写法
func entries(doc gjson.Result) (gjson.Result, error) {
	if doc.IsArray() {
		return doc, nil
	}
	for _, key := range []string{"rowers", "athletes"} {
		if v := doc.Get(key); v.IsArray() {
			return v, nil
		}
	}
	return gjson.Result{}, fmt.Errorf("%w: 缺少 rowers 数组", ErrInvalidRoster)
}

// Parse 解析名单，convert6k 为 true 时将 erg_score 视为 6k 成绩并换算为 2k
func Parse(data []byte, convert6k bool) ([]*domain.Athlete, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: 不是合法的 JSON", ErrInvalidRoster)
	}

	list, err := entries(gjson.ParseBytes(data))
	if err != nil {
		return nil, err
	}

	athletes := make([]*domain.Athlete, 0)
	seen := make(map[string]bool)
	var parseErr error

	list.ForEach(func(key, v gjson.Result) bool {
		a, err := parseAthlete(v)
		if err != nil {
			parseErr = fmt.Errorf("第 %d 名运动员: %w", key.Int()+1, err)
			return false
		}
		if seen[a.Name] {
			parseErr = fmt.Errorf("%w: 运动员 %s 重复出现", ErrInvalidRoster, a.Name)
			return false
		}
		seen[a.Name] = true

		athletes = append(athletes, a)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	if convert6k {
		return Convert6k(athletes), nil
	}
	return athletes, nil
}

// Convert6k 返回成绩换算为 2k 的副本，不修改传入的运动员
// 写回文件时应使用原始名单，否则下次读取会再次换算
func Convert6k(athletes []*domain.Athlete) []*domain.Athlete {
	converted := make([]*domain.Athlete, len(athletes))
	for i, a := range athletes {
		c := *a
		c.AttendanceHistory = append([]domain.Attendance(nil), a.AttendanceHistory...)
		c.ErgScore = domain.Convert6kTo2k(a.ErgScore)
		converted[i] = &c
	}
	return converted
}

func parseAthlete(v gjson.Result) (*domain.Athlete, error) {
	name := strings.TrimSpace(v.Get("name").String())
	if name == "" {
		return nil, fmt.Errorf("%w: 缺少 name", ErrInvalidRoster)
	}

	erg := v.Get("erg_score")
	if erg.Type != gjson.Number || erg.Float() <= 0 {
		return nil, fmt.Errorf("%w: %s 的 erg_score 必须为正数", ErrInvalidRoster, name)
	}

	side := domain.Side(strings.ToLower(v.Get("side_preference").String()))
	switch side {
	case domain.SidePort, domain.SideStarboard, domain.SideBoth:
	default:
		return nil, fmt.Errorf("%w: %s 的 side_preference 不合法 (%q)", ErrInvalidRoster, name, side)
	}

	exp := domain.Experience(strings.ToLower(v.Get("experience").String()))
	switch exp {
	case domain.ExperienceNovice, domain.ExperienceVarsity:
	default:
		return nil, fmt.Errorf("%w: %s 的 experience 不合法 (%q)", ErrInvalidRoster, name, exp)
	}

	history := make([]domain.Attendance, 0)
	var historyErr error
	v.Get("attendance_history").ForEach(func(_, h gjson.Result) bool {
		att, err := parseAttendance(h)
		if err != nil {
			historyErr = fmt.Errorf("%w: %s 的 attendance_history %v", ErrInvalidRoster, name, err)
			return false
		}
		history = append(history, att)
		return true
	})
	if historyErr != nil {
		return nil, historyErr
	}

	days := v.Get("days_since_boated").Int()
	if days < 0 {
		return nil, fmt.Errorf("%w: %s 的 days_since_boated 不能为负数", ErrInvalidRoster, name)
	}

	return &domain.Athlete{
		Name:              name,
		Email:             v.Get("email").String(),
		ErgScore:          erg.Float(),
		SidePreference:    side,
		Experience:        exp,
		AttendanceHistory: history,
		DaysSinceBoated:   int32(days),
	}, nil
}

// parseAttendance 接受 "yes"/"no" 或布尔值
func parseAttendance(h gjson.Result) (domain.Attendance, error) {
	switch h.Type {
	case gjson.True:
		return domain.AttendancePresent, nil
	case gjson.False:
		return domain.AttendanceAbsent, nil
	case gjson.String:
		switch domain.Attendance(strings.ToLower(h.String())) {
		case domain.AttendancePresent:
			return domain.AttendancePresent, nil
		case domain.AttendanceAbsent:
			return domain.AttendanceAbsent, nil
		}
	}
	return "", fmt.Errorf("无法识别 %s", h.Raw)
}

func Load(path string, convert6k bool) ([]*domain.Athlete, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, convert6k)
}

// Marshal 以 {"rowers": [...]} 的格式输出名单
func Marshal(athletes []*domain.Athlete) ([]byte, error) {
	f := file{Rowers: make([]record, len(athletes))}
	for i, a := range athletes {
		history := make([]string, len(a.AttendanceHistory))
		for j, h := range a.AttendanceHistory {
			history[j] = string(h)
		}
		f.Rowers[i] = record{
			Name:              a.Name,
			ErgScore:          a.ErgScore,
			SidePreference:    string(a.SidePreference),
			Experience:        string(a.Experience),
			AttendanceHistory: history,
			DaysSinceBoated:   a.DaysSinceBoated,
			Email:             a.Email,
		}
	}
	return json.MarshalIndent(f, "", "  ")
}

func Save(path string, athletes []*domain.Athlete) error {
	data, err := Marshal(athletes)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
