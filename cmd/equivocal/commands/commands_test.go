package commands

import (
	"bytes"
	"encoding/json"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/haivivi/equivocal/cmd/equivocal/internal/config"
	"github.com/haivivi/equivocal/pkg/audio/pcm"
	"github.com/haivivi/equivocal/pkg/audio/wav"
	"github.com/haivivi/equivocal/pkg/scene"
)

const rate = pcm.AnalysisRate

func setupTestEnv(t *testing.T) (string, func()) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.File), []byte("log:\n  level: warn\n"), 0644); err != nil {
		t.Fatal(err)
	}
	old := os.Getenv(config.EnvDir)
	os.Setenv(config.EnvDir, dir)
	return dir, func() {
		if old == "" {
			os.Unsetenv(config.EnvDir)
		} else {
			os.Setenv(config.EnvDir, old)
		}
	}
}

func runCmd(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	verbose = false
	formatOutput = "table"
	outputFile = ""

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	wOut.Close()
	wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	var outBuf, errBuf bytes.Buffer
	outBuf.ReadFrom(rOut)
	errBuf.ReadFrom(rErr)

	stdout = outBuf.String()
	stderr = errBuf.String()
	if err != nil {
		exitCode = 1
		stderr = err.Error()
	}

	resetFlags(rootCmd)
	return
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
			return
		}
		f.Value.Set(f.DefValue)
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// writeTestYAML writes a YAML file to a temp dir and returns its path.
func writeTestYAML(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func noise(seed uint64, amp float64) []float32 {
	r := rand.New(rand.NewPCG(seed, seed+1))
	s := make([]float32, rate/2)
	for i := range s {
		s[i] = float32(amp * (2*r.Float64() - 1))
	}
	return s
}

func sine(freq, amp float64) []float32 {
	s := make([]float32, rate/2)
	for i := range s {
		s[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/rate))
	}
	return s
}

func writeWAV(t *testing.T, path string, samples []float32) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := wav.Save(path, &pcm.Clip{Samples: samples, SampleRate: rate}, 16); err != nil {
		t.Fatal(err)
	}
}

// trainingRoot lays out forest_ambience in Tier_1 and bird_chirp and
// thunder in Tier_2.
func trainingRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeWAV(t, filepath.Join(root, "Tier_1", "forest_ambience", "a.wav"), noise(1, 0.2))
	writeWAV(t, filepath.Join(root, "Tier_1", "forest_ambience", "b.wav"), noise(2, 0.3))
	writeWAV(t, filepath.Join(root, "Tier_2", "bird_chirp", "a.wav"), sine(3000, 0.4))
	writeWAV(t, filepath.Join(root, "Tier_2", "thunder", "a.wav"), noise(3, 0.9))
	return root
}

func decodeJSON(t *testing.T, s string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(s), v); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, s)
	}
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, code := runCmd(t, args...)
	if code != 0 {
		t.Fatalf("%s: exit %d: %s", strings.Join(args, " "), code, stderr)
	}
	return stdout
}

func TestLearnAndCompose(t *testing.T) {
	_, cleanup := setupTestEnv(t)
	defer cleanup()

	var learnt learnResult
	decodeJSON(t, mustRun(t, "learn", trainingRoot(t), "--format", "json"), &learnt)
	if len(learnt.Sounds) != 3 {
		t.Fatalf("learned %+v", learnt.Sounds)
	}
	if !slices.Equal(learnt.MissingTiers, []string{"Tier_3"}) {
		t.Errorf("missing tiers = %q", learnt.MissingTiers)
	}

	var names []string
	decodeJSON(t, mustRun(t, "sounds", "list", "--format", "json", "--jq", "[.[].name]"), &names)
	if !slices.Equal(names, []string{"bird_chirp", "forest_ambience", "thunder"}) {
		t.Errorf("sounds = %q", names)
	}

	var composed sceneResult
	decodeJSON(t, mustRun(t, "compose", "a peaceful forest", "--format", "json"), &composed)
	var got []string
	for _, c := range composed.Components {
		got = append(got, c.Sound)
	}
	if !slices.Equal(got, []string{"forest_ambience", "bird_chirp"}) {
		t.Errorf("compose selected %q", got)
	}
	if composed.Reading.Mood == "" {
		t.Error("compose output lacks a reading")
	}

	var scenes []sceneResult
	decodeJSON(t, mustRun(t, "scenes", "list", "--format", "json"), &scenes)
	if len(scenes) != 1 || scenes[0].ID != composed.ID {
		t.Errorf("scenes = %+v", scenes)
	}

	stdout := mustRun(t, "scenes", "get", composed.ID, "--format", "json", "--jq", ".prompt")
	if !strings.Contains(stdout, "a peaceful forest") {
		t.Errorf("scenes get: %s", stdout)
	}
}

func TestBlend(t *testing.T) {
	_, cleanup := setupTestEnv(t)
	defer cleanup()
	mustRun(t, "learn", trainingRoot(t))

	var s sceneResult
	decodeJSON(t, mustRun(t, "blend", "forest_ambience:3", "thunder:1", "--format", "json"), &s)
	if len(s.Components) != 2 || s.Components[0].Weight != 0.75 || s.Components[1].Weight != 0.25 {
		t.Errorf("blend = %+v", s.Components)
	}

	recipe := writeTestYAML(t, "recipe.yaml", `
sounds:
  - name: bird_chirp
  - name: thunder
    weight: 3
`)
	decodeJSON(t, mustRun(t, "blend", "-f", recipe, "--format", "json"), &s)
	if len(s.Components) != 2 || s.Components[0].Weight != 0.25 || s.Components[1].Weight != 0.75 {
		t.Errorf("recipe blend = %+v", s.Components)
	}

	if _, stderr, code := runCmd(t, "blend", "nope:1"); code == 0 || !strings.Contains(stderr, "unknown sound") {
		t.Errorf("blend of unknown sound: exit %d, %s", code, stderr)
	}
	if _, stderr, code := runCmd(t, "blend", "thunder:x"); code == 0 || !strings.Contains(stderr, "invalid weight") {
		t.Errorf("blend with bad weight: exit %d, %s", code, stderr)
	}
}

func TestComposeErrors(t *testing.T) {
	_, cleanup := setupTestEnv(t)
	defer cleanup()

	_, stderr, code := runCmd(t, "compose", "rain")
	if code == 0 || !strings.Contains(stderr, "equivocal learn") {
		t.Errorf("compose on empty library: exit %d, %s", code, stderr)
	}

	mustRun(t, "learn", trainingRoot(t))
	_, stderr, code = runCmd(t, "compose", "xyzzy", "plugh")
	if code == 0 || !strings.Contains(stderr, "try words like") {
		t.Errorf("compose without match: exit %d, %s", code, stderr)
	}
}

func TestListenAndSimilar(t *testing.T) {
	_, cleanup := setupTestEnv(t)
	defer cleanup()
	root := trainingRoot(t)
	mustRun(t, "learn", root)

	var heard listenResult
	decodeJSON(t, mustRun(t, "listen", "thunder", "--format", "json"), &heard)
	if heard.Kind != "sound" || heard.Reading.Energy == "" {
		t.Errorf("listen = %+v", heard)
	}

	clip := filepath.Join(root, "Tier_2", "thunder", "a.wav")
	decodeJSON(t, mustRun(t, "listen", clip, "--format", "json"), &heard)
	if heard.Kind != "file" {
		t.Errorf("listen file kind = %q", heard.Kind)
	}

	var near similarResult
	decodeJSON(t, mustRun(t, "similar", "forest_ambience", "-k", "2", "--format", "json"), &near)
	if len(near.Neighbors) != 2 {
		t.Fatalf("neighbors = %+v", near.Neighbors)
	}
	for _, n := range near.Neighbors {
		if n.Name == "forest_ambience" {
			t.Error("similar lists the target itself")
		}
	}

	if _, stderr, code := runCmd(t, "listen", "rainforest"); code == 0 || !strings.Contains(stderr, "not a learned sound") {
		t.Errorf("listen unknown: exit %d, %s", code, stderr)
	}
}

func TestExportImport(t *testing.T) {
	_, cleanup := setupTestEnv(t)
	defer cleanup()
	mustRun(t, "learn", trainingRoot(t))
	mustRun(t, "compose", "thunder")

	models := t.TempDir()
	stdout := mustRun(t, "export", "--to", models)
	if !strings.Contains(stdout, "Exported 3 sounds and 1 soundscapes") {
		t.Errorf("export: %s", stdout)
	}
	if _, err := os.Stat(filepath.Join(models, scene.DefaultModelFile)); err != nil {
		t.Fatal(err)
	}

	mustRun(t, "sounds", "delete", "thunder")
	if _, _, code := runCmd(t, "sounds", "get", "thunder"); code == 0 {
		t.Fatal("thunder still stored after delete")
	}

	stdout = mustRun(t, "import", "--from", models)
	if !strings.Contains(stdout, "Imported 3 sounds and 1 soundscapes") {
		t.Errorf("import: %s", stdout)
	}
	stdout = mustRun(t, "sounds", "get", "thunder", "--format", "json", "--jq", ".tier")
	if !strings.Contains(stdout, "Tier_2") {
		t.Errorf("imported thunder tier: %s", stdout)
	}

	if _, stderr, code := runCmd(t, "import", "missing.json", "--from", models); code == 0 || !strings.Contains(stderr, "missing.json") {
		t.Errorf("import missing: exit %d, %s", code, stderr)
	}
}

func TestScenesDelete(t *testing.T) {
	_, cleanup := setupTestEnv(t)
	defer cleanup()
	mustRun(t, "learn", trainingRoot(t))

	var s sceneResult
	decodeJSON(t, mustRun(t, "compose", "storm", "--format", "json"), &s)
	mustRun(t, "scenes", "delete", s.ID)

	var scenes []sceneResult
	decodeJSON(t, mustRun(t, "scenes", "list", "--format", "json"), &scenes)
	if len(scenes) != 0 {
		t.Errorf("scenes after delete = %+v", scenes)
	}
	if _, stderr, code := runCmd(t, "scenes", "delete", "not-a-uuid"); code == 0 || !strings.Contains(stderr, "invalid soundscape ID") {
		t.Errorf("delete bad id: exit %d, %s", code, stderr)
	}
}

func TestVocab(t *testing.T) {
	dir, cleanup := setupTestEnv(t)
	defer cleanup()

	var entries []vocabEntry
	decodeJSON(t, mustRun(t, "vocab", "storm", "--format", "json"), &entries)
	if len(entries) != 1 || !slices.Equal(entries[0].Sounds, []string{"thunder", "forest_ambience"}) {
		t.Errorf("vocab storm = %+v", entries)
	}

	if _, _, code := runCmd(t, "vocab", "harbour"); code == 0 {
		t.Error("vocab harbour should fail without an extra vocabulary")
	}

	if err := os.WriteFile(filepath.Join(dir, "words.yaml"), []byte("harbour: [sea_waves, seagull]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, config.File), []byte("vocabulary: words.yaml\nlog:\n  level: warn\n"), 0644); err != nil {
		t.Fatal(err)
	}
	decodeJSON(t, mustRun(t, "vocab", "Harbour", "--format", "json"), &entries)
	if len(entries) != 1 || !slices.Equal(entries[0].Sounds, []string{"sea_waves", "seagull"}) {
		t.Errorf("vocab harbour = %+v", entries)
	}
}

func TestConfigCmd(t *testing.T) {
	dir, cleanup := setupTestEnv(t)
	defer cleanup()

	var view configView
	decodeJSON(t, mustRun(t, "config", "--format", "json"), &view)
	if view.Dir != dir || view.Store.Dir != filepath.Join(dir, "library") || view.Analysis.SampleRate != rate {
		t.Errorf("config = %+v", view)
	}
}

func TestBrokenConfig(t *testing.T) {
	dir, cleanup := setupTestEnv(t)
	defer cleanup()
	if err := os.WriteFile(filepath.Join(dir, config.File), []byte("store:\n  backend: sqlite\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, _, code := runCmd(t, "version"); code != 0 {
		t.Error("version should work with a broken config")
	}
	_, stderr, code := runCmd(t, "sounds", "list")
	if code == 0 || !strings.Contains(stderr, "config not available") {
		t.Errorf("sounds list: exit %d, %s", code, stderr)
	}
}

func TestSchemaCmd(t *testing.T) {
	_, cleanup := setupTestEnv(t)
	defer cleanup()

	var schema map[string]any
	decodeJSON(t, mustRun(t, "schema"), &schema)
	props, _ := schema["properties"].(map[string]any)
	if _, ok := props["atomic_sounds"]; !ok {
		t.Errorf("schema properties = %v", props)
	}
}

func TestParseTiers(t *testing.T) {
	tiers, err := parseTiers([]string{"ambience=base", " events "})
	if err != nil {
		t.Fatal(err)
	}
	want := []scene.Tier{{Dir: "ambience", Name: "base"}, {Dir: "events"}}
	if !slices.Equal(tiers, want) {
		t.Errorf("tiers = %+v", tiers)
	}
	if tiers, _ := parseTiers(nil); tiers != nil {
		t.Errorf("no flags = %+v, want nil", tiers)
	}
	if _, err := parseTiers([]string{"=x"}); err == nil {
		t.Error("parseTiers should reject an empty dir")
	}
}

func TestLearnTierFlag(t *testing.T) {
	_, cleanup := setupTestEnv(t)
	defer cleanup()

	var learnt learnResult
	decodeJSON(t, mustRun(t, "learn", trainingRoot(t), "--tier", "Tier_2", "--format", "json"), &learnt)
	if len(learnt.Sounds) != 2 || len(learnt.MissingTiers) != 0 {
		t.Errorf("learn --tier Tier_2 = %+v", learnt)
	}
	if _, stderr, code := runCmd(t, "learn", t.TempDir()); code == 0 || !strings.Contains(stderr, "no sounds learned") {
		t.Errorf("learn empty root: exit %d, %s", code, stderr)
	}
}
