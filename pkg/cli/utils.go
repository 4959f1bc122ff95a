package cli

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/cli/config"
	"github.com/secmon-lab/worktime/pkg/domain/interfaces"
	"github.com/urfave/cli/v3"
)

// joinFlags combines multiple flag slices into one
func joinFlags(flags ...[]cli.Flag) []cli.Flag {
	var result []cli.Flag
	for _, f := range flags {
		result = append(result, f...)
	}
	return result
}

// buildFetchers returns the configured fetchers, JIRA first so that time
// entries can be matched to freshly imported tickets
func buildFetchers(jiraCfg *config.Jira, tmetricCfg *config.TMetric, loc *time.Location) ([]interfaces.Fetcher, error) {
	var fetchers []interfaces.Fetcher

	if jiraCfg.IsConfigured() {
		f, err := jiraCfg.Configure()
		if err != nil {
			return nil, err
		}
		fetchers = append(fetchers, f)
	}

	if tmetricCfg.IsConfigured() {
		f, err := tmetricCfg.Configure(loc)
		if err != nil {
			return nil, err
		}
		fetchers = append(fetchers, f)
	}

	if len(fetchers) == 0 {
		return nil, goerr.New("no source is configured. Configure JIRA and/or TMetric")
	}
	return fetchers, nil
}
