package canopy

import "time"

// Run loads a config file, builds the scene and traces it.
func Run(cfgPath string, progress ProgressFunc) (*TracingResult, error) {
	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	scene, tc, err := cfg.BuildScene()
	if err != nil {
		return nil, err
	}
	tc.Progress = progress

	start := time.Now()
	res, err := Trace(scene, tc)
	if err != nil {
		return nil, err
	}
	DebugLog("run finished in %s", time.Since(start))
	return res, nil
}
