package seed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
)

func TestParseErg(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "420", want: 420},
		{in: "7:00.5", want: 420.5},
		{in: "6:59", want: 419},
		{in: "6:75", wantErr: true},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseErg(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseCSV(t *testing.T) {
	t.Run("中文表头", func(t *testing.T) {
		in := "姓名,邮箱,2k成绩,舷侧,经验,出勤记录,未上艇天数\n" +
			"张三,zhangsan@example.com,7:00,左,校队,是;否;是,2\n" +
			"李四,,400.5,均可,新手,,\n"

		athletes, err := ParseCSV(strings.NewReader(in), false)
		require.NoError(t, err)
		require.Len(t, athletes, 2)

		require.Equal(t, "张三", athletes[0].Name)
		require.Equal(t, "zhangsan@example.com", athletes[0].Email)
		require.InDelta(t, 420.0, athletes[0].ErgScore, 1e-9)
		require.Equal(t, domain.SidePort, athletes[0].SidePreference)
		require.Equal(t, domain.ExperienceVarsity, athletes[0].Experience)
		require.Equal(t, []domain.Attendance{domain.AttendancePresent, domain.AttendanceAbsent, domain.AttendancePresent}, athletes[0].AttendanceHistory)
		require.EqualValues(t, 2, athletes[0].DaysSinceBoated)

		require.Equal(t, domain.SideBoth, athletes[1].SidePreference)
		require.Empty(t, athletes[1].AttendanceHistory)
		require.Zero(t, athletes[1].DaysSinceBoated)
	})

	t.Run("英文表头并换算 6k", func(t *testing.T) {
		in := "name,erg_score,side_preference,experience,attendance_history,days_since_boated\n" +
			"Alice,1440,starboard,novice,yes;yes,0\n"

		athletes, err := ParseCSV(strings.NewReader(in), true)
		require.NoError(t, err)
		require.Len(t, athletes, 1)
		require.InDelta(t, domain.Convert6kTo2k(1440), athletes[0].ErgScore, 1e-9)
	})

	t.Run("非法舷侧", func(t *testing.T) {
		in := "姓名,2k成绩,舷侧,经验\n张三,420,中,校队\n"

		_, err := ParseCSV(strings.NewReader(in), false)
		require.Error(t, err)
	})

	t.Run("非法成绩", func(t *testing.T) {
		in := "姓名,2k成绩,舷侧,经验\n张三,七分钟,左,校队\n"

		_, err := ParseCSV(strings.NewReader(in), false)
		require.ErrorContains(t, err, "第 2 行")
	})

	t.Run("空文件", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader(""), false)
		require.Error(t, err)
	})
}
