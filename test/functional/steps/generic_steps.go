package steps

import (
	"time"
)

// Generic step implementations
func (fc *FeatureContext) waitForDuration(duration string) error {
	d, err := time.ParseDuration(duration)
	if err != nil {
		return err
	}

	time.Sleep(d)
	return nil
}

func (fc *FeatureContext) theResponseStatusCodeShouldBe(code int) error {
	fc.require.Equal(code, fc.response.StatusCode, "Unexpected status code")
	return nil
}
