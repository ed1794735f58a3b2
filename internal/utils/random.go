package utils

import (
	"fmt"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "帆", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

// GenerateUsernameFromChineseName 取每个字拼音的随机前缀，再加上 1~3 位数字
func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, py := range pinyinArray {
		length := rand.Intn(len(py)) + 1
		username += py[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomCoach(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         domain.RoleCoach,
	}, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	randomPassword := make([]rune, length)
	for i := range randomPassword {
		randomPassword[i] = letters[rand.Intn(len(letters))]
	}
	return string(randomPassword)
}

var (
	sides       = []domain.Side{domain.SidePort, domain.SideStarboard, domain.SideBoth}
	experiences = []domain.Experience{domain.ExperienceNovice, domain.ExperienceVarsity}
)

// GenerateRandomAthlete 生成一个随机运动员，2k 成绩在 6:20 到 8:00 之间，校队队员整体更快
func GenerateRandomAthlete(emailDomainName string) *domain.Athlete {
	name := GenerateRandomChineseName()
	experience := experiences[rand.Intn(len(experiences))]

	erg := 380 + rand.Float64()*100
	if experience == domain.ExperienceVarsity {
		erg -= 20
	}

	// 出勤率大约 80%
	history := make([]domain.Attendance, rand.Intn(8)+3)
	for i := range history {
		history[i] = domain.AttendancePresent
		if rand.Intn(5) == 0 {
			history[i] = domain.AttendanceAbsent
		}
	}

	return &domain.Athlete{
		Name:              name,
		Email:             GenerateUsernameFromChineseName(name) + "@" + emailDomainName,
		ErgScore:          float64(int(erg*10)) / 10,
		SidePreference:    sides[rand.Intn(len(sides))],
		Experience:        experience,
		AttendanceHistory: history,
		DaysSinceBoated:   int32(rand.Intn(4)),
	}
}

// GenerateRandomLineupName 生成形如 "阵容-0412-ab3" 的名字
func GenerateRandomLineupName(prefix string) string {
	suffix := make([]rune, 3)
	for i := range suffix {
		suffix[i] = letters[rand.Intn(26)]
	}
	return fmt.Sprintf("%s-%04d-%s", prefix, rand.Intn(10000), string(suffix))
}
