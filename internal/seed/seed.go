package seed

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/repository"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/roster"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/utils"
)

// 队里登记表的中文表头与名单字段的对应关系
var headerMap = map[string]string{
	"姓名":    "name",
	"邮箱":    "email",
	"2k成绩":  "erg_score",
	"舷侧":    "side_preference",
	"经验":    "experience",
	"出勤记录":  "attendance_history",
	"未上艇天数": "days_since_boated",
}

var sideMap = map[string]string{"左": "port", "右": "starboard", "均可": "both"}
var experienceMap = map[string]string{"新手": "novice", "校队": "varsity"}

// Coaches 插入 n 个随机教练，返回成功插入的数量
func Coaches(r *repository.Repository, n int, password string, emailDomain string) int {
	cnt := 0
	for i := 0; i < n; i++ {
		user, err := utils.GenerateRandomCoach(password, emailDomain)
		if err != nil {
			slog.Error("无法生成随机教练", "error", err)
			continue
		}
		if err := r.CreateUser(user); err != nil {
			slog.Error("无法插入教练", "error", err)
			continue
		}
		cnt++
	}
	return cnt
}

// Athletes 插入 n 个随机运动员，返回成功插入的数量
func Athletes(r *repository.Repository, n int, emailDomain string) int {
	cnt := 0
	for i := 0; i < n; i++ {
		if err := r.CreateAthlete(utils.GenerateRandomAthlete(emailDomain)); err != nil {
			slog.Error("无法插入运动员", "error", err)
			continue
		}
		cnt++
	}
	return cnt
}

// ImportFile 导入名单文件，.csv 按登记表格式解析，其余按 JSON 名单解析
func ImportFile(r *repository.Repository, path string, convert6k bool) (int, error) {
	var athletes []*domain.Athlete
	var err error

	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		var file *os.File
		file, err = os.Open(path)
		if err != nil {
			return 0, err
		}
		defer file.Close()
		athletes, err = ParseCSV(file, convert6k)
	} else {
		athletes, err = roster.Load(path, convert6k)
	}
	if err != nil {
		return 0, err
	}

	if err := r.ImportAthletes(athletes); err != nil {
		return 0, err
	}
	return len(athletes), nil
}

// ParseCSV 解析登记表导出的 CSV，出勤记录以 "是/否" 或 "yes/no" 组成，用分号分隔
func ParseCSV(in io.Reader, convert6k bool) ([]*domain.Athlete, error) {
	reader := csv.NewReader(in)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}

	columns := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(header)
		if field, ok := headerMap[header]; ok {
			columns[i] = field
		} else {
			columns[i] = header
		}
	}

	records := make([]map[string]any, 0)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("读取第 %d 行失败: %w", line, err)
		}

		rec, err := parseRow(columns, row)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行: %w", line, err)
		}
		records = append(records, rec)
	}

	// 统一交给名单解析器校验
	data, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}
	return roster.Parse(data, convert6k)
}

func parseRow(columns []string, row []string) (map[string]any, error) {
	rec := make(map[string]any)
	for i, value := range row {
		if i >= len(columns) {
			break
		}
		value = strings.TrimSpace(value)

		switch columns[i] {
		case "name", "email":
			rec[columns[i]] = value
		case "erg_score":
			erg, err := parseErg(value)
			if err != nil {
				return nil, err
			}
			rec["erg_score"] = erg
		case "side_preference":
			if v, ok := sideMap[value]; ok {
				value = v
			}
			rec["side_preference"] = value
		case "experience":
			if v, ok := experienceMap[value]; ok {
				value = v
			}
			rec["experience"] = value
		case "attendance_history":
			history := make([]string, 0)
			for _, h := range strings.Split(value, ";") {
				switch h = strings.TrimSpace(h); h {
				case "":
				case "是":
					history = append(history, string(domain.AttendancePresent))
				case "否":
					history = append(history, string(domain.AttendanceAbsent))
				default:
					history = append(history, h)
				}
			}
			rec["attendance_history"] = history
		case "days_since_boated":
			if value == "" {
				continue
			}
			days, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("未上艇天数不合法: %s", value)
			}
			rec["days_since_boated"] = days
		}
	}
	return rec, nil
}

// parseErg 接受秒数或 m:ss.s 形式的成绩
func parseErg(value string) (float64, error) {
	minutes, seconds, found := strings.Cut(value, ":")
	if !found {
		return strconv.ParseFloat(value, 64)
	}

	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, fmt.Errorf("成绩不合法: %s", value)
	}
	s, err := strconv.ParseFloat(seconds, 64)
	if err != nil || s >= 60 {
		return 0, fmt.Errorf("成绩不合法: %s", value)
	}
	return float64(m*60) + s, nil
}
