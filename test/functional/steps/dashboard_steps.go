package steps

import (
	"fmt"
	"os"

	"sensor-dashboard/test/functional/driver"

	"github.com/cucumber/godog"
)

func (fc *FeatureContext) theDashboardIsRunningWithAnEmptyLog() error {
	return fc.theDashboardIsRunning()
}

func (fc *FeatureContext) theDashboardIsRunning() error {
	dashboard, err := driver.StartDashboard(fc.logPath())
	if err != nil {
		return fmt.Errorf("starting dashboard: %w", err)
	}
	fc.dashboard = dashboard
	return nil
}

func (fc *FeatureContext) theLogAlreadyContains(content *godog.DocString) error {
	return os.WriteFile(fc.logPath(), []byte(content.Content+"\n"), 0o644)
}

func (fc *FeatureContext) theDashboardRestarts() error {
	fc.dashboard.Stop()
	fc.dashboard = nil
	return fc.theDashboardIsRunning()
}

func (fc *FeatureContext) theBrokerConnectionIsDown() error {
	fc.dashboard.Feed.SetConnected(false)
	return nil
}

func (fc *FeatureContext) theSensorPublishes(payload string) error {
	fc.dashboard.Feed.Deliver([]byte(payload))
	return nil
}

func (fc *FeatureContext) theSensorPublishesReadings(count int) error {
	for i := 0; i < count; i++ {
		payload := fmt.Sprintf(`{"temperature": %d, "humidity": 50, "light_status": "on"}`, i)
		fc.dashboard.Feed.Deliver([]byte(payload))
	}
	return nil
}
