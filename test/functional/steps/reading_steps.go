package steps

import (
	"encoding/csv"
	"os"
	"time"
)

const _timestampLayout = "2006-01-02 15:04:05"

func (fc *FeatureContext) iRequestTheLatestReading() error {
	response, err := fc.dashboard.GetLatest()
	if err != nil {
		return err
	}
	fc.response = response

	var data map[string]any
	fc.require.NoError(fc.decodeBody(response.Body, &data))
	fc.responseData = data
	return nil
}

func (fc *FeatureContext) iRequestTheHistory() error {
	response, err := fc.dashboard.GetHistory()
	if err != nil {
		return err
	}
	fc.response = response

	var data []map[string]any
	fc.require.NoError(fc.decodeBody(response.Body, &data))
	fc.responseListData = data
	return nil
}

func (fc *FeatureContext) theLatestReadingShouldHave(temperature, humidity float64, lightStatus string) error {
	fc.require.Equal(temperature, fc.responseData["temperature"])
	fc.require.Equal(humidity, fc.responseData["humidity"])
	fc.require.Equal(lightStatus, fc.responseData["light_status"])
	return nil
}

func (fc *FeatureContext) theLatestReadingShouldHaveNoTimestamp() error {
	fc.require.Contains(fc.responseData, "timestamp")
	fc.require.Nil(fc.responseData["timestamp"])
	return nil
}

func (fc *FeatureContext) theLatestReadingShouldHaveATimestamp() error {
	timestamp, ok := fc.responseData["timestamp"].(string)
	fc.require.True(ok, "timestamp should be a string")

	parsed, err := time.ParseInLocation(_timestampLayout, timestamp, time.Local)
	fc.require.NoError(err)
	fc.require.WithinDuration(time.Now(), parsed, time.Minute)
	return nil
}

func (fc *FeatureContext) theTotalRecordsShouldBe(count int) error {
	fc.require.Equal(float64(count), fc.responseData["total_records"])
	return nil
}

func (fc *FeatureContext) theBrokerShouldBeReportedAs(state string) error {
	fc.require.Equal(state == "connected", fc.responseData["mqtt_connected"])
	return nil
}

func (fc *FeatureContext) theHistoryShouldContainReadings(count int) error {
	fc.require.Len(fc.responseListData, count)
	return nil
}

func (fc *FeatureContext) theHistoryShouldStartAndEndAt(first, last float64) error {
	fc.require.NotEmpty(fc.responseListData)
	fc.require.Equal(first, fc.responseListData[0]["temperature"])
	fc.require.Equal(last, fc.responseListData[len(fc.responseListData)-1]["temperature"])
	return nil
}

func (fc *FeatureContext) theLogFileShouldContainRecords(count int) error {
	file, err := os.Open(fc.logPath())
	fc.require.NoError(err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	fc.require.NoError(err)
	// the first row is the header
	fc.require.Len(records, count+1)
	return nil
}
