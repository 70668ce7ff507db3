// Package narrate turns an evaluation result into an Indonesian-language
// explanation. A local or remote language model writes the narration; when it
// is unreachable or returns garbage, a deterministic template takes over. The
// model never participates in the numeric analysis.
package narrate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/afifnasrullahs/roomcomfort/internal/engine"
	"github.com/afifnasrullahs/roomcomfort/internal/metrics"
)

const (
	ModeOllama = "ollama"
	ModeOpenAI = "openai"

	maxTokens   = 400
	temperature = 0.3
)

// Generator holds the language-model connection settings.
type Generator struct {
	mode     string
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
	lg       *slog.Logger
}

func New(mode, endpoint, model, apiKey string, timeout time.Duration, lg *slog.Logger) *Generator {
	if mode != ModeOpenAI {
		mode = ModeOllama
	}
	return &Generator{
		mode:     mode,
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		lg:       lg,
	}
}

// Reason produces the narration for one evaluation. The second return value
// reports whether the text came from the language model; false means the
// template fallback was used.
func (g *Generator) Reason(ctx context.Context, reading engine.SensorReading, res engine.EvaluationResult) (string, bool) {
	prompt := buildPrompt(reading, res)

	raw, err := g.generate(ctx, prompt)
	if err != nil {
		g.lg.Warn("narration falling back to template", "mode", g.mode, "err", err)
		metrics.IncNarrationFallback()
		return FallbackReason(res), false
	}
	reason := parseReason(raw)
	if reason == "" {
		metrics.IncNarrationFallback()
		return FallbackReason(res), false
	}
	return reason, true
}

func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	if g.mode == ModeOpenAI {
		return g.openaiGenerate(ctx, prompt)
	}
	return g.ollamaGenerate(ctx, prompt)
}

func (g *Generator) ollamaGenerate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  g.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": temperature,
			"num_predict": maxTokens,
		},
	}
	body, err := g.post(ctx, payload, "")
	if err != nil {
		return "", err
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if out.Response == "" {
		return string(body), nil
	}
	return out.Response, nil
}

func (g *Generator) openaiGenerate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":       g.model,
		"messages":    []map[string]string{{"role": "user", "content": prompt}},
		"max_tokens":  maxTokens,
		"temperature": temperature,
	}
	body, err := g.post(ctx, payload, g.apiKey)
	if err != nil {
		return "", err
	}
	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(out.Choices) == 0 {
		return string(body), nil
	}
	return out.Choices[0].Message.Content, nil
}

func (g *Generator) post(ctx context.Context, payload any, bearer string) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("llm endpoint returned %d", resp.StatusCode)
	}
	return body, nil
}

// parseReason extracts the "reason" field from a model response that may be
// wrapped in markdown code fences or surrounded by chatter. Returns the
// cleaned raw text when no JSON object can be recovered.
func parseReason(response string) string {
	text := strings.TrimSpace(response)

	if i := strings.Index(text, "```json"); i != -1 {
		rest := text[i+7:]
		if j := strings.Index(rest, "```"); j != -1 {
			text = strings.TrimSpace(rest[:j])
		}
	} else if i := strings.Index(text, "```"); i != -1 {
		rest := text[i+3:]
		if j := strings.Index(rest, "```"); j != -1 {
			text = strings.TrimSpace(rest[:j])
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		var out struct {
			Reason string `json:"reason"`
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &out); err == nil && out.Reason != "" {
			return out.Reason
		}
	}

	text = strings.TrimSpace(response)
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.ReplaceAll(text, `{"reason":`, "")
	text = strings.ReplaceAll(text, `"}`, "")
	text = strings.ReplaceAll(text, `"`, "")
	return strings.TrimSpace(text)
}

// pmvDescription maps a PMV value to its thermal-sensation label on the
// seven-point ASHRAE scale.
func pmvDescription(pmv float64) string {
	switch {
	case pmv <= -2.5:
		return "sangat dingin"
	case pmv <= -1.5:
		return "dingin"
	case pmv <= -0.5:
		return "agak dingin"
	case pmv <= 0.5:
		return "netral/nyaman"
	case pmv <= 1.5:
		return "agak hangat"
	case pmv <= 2.5:
		return "hangat"
	default:
		return "panas"
	}
}

func severityDescription(s engine.Severity) string {
	switch s {
	case engine.SeverityNone:
		return "dalam zona netral"
	case engine.SeverityMild:
		return "sedikit di luar zona nyaman (mild)"
	case engine.SeverityModerate:
		return "tidak nyaman (moderate)"
	case engine.SeveritySevere:
		return "sangat tidak nyaman (severe)"
	default:
		return "unknown"
	}
}

func buildPrompt(reading engine.SensorReading, res engine.EvaluationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Kamu adalah asisten analisis kenyamanan ruangan berbasis standar ISO 7730.\n\n")

	fmt.Fprintf(&b, "DATA SENSOR AKTUAL:\n")
	fmt.Fprintf(&b, "- Suhu udara (Ta): %g C\n", reading.Temperature)
	fmt.Fprintf(&b, "- Kelembapan (RH): %g%%\n", reading.Humidity)
	fmt.Fprintf(&b, "- Kebisingan: %g dB\n", reading.Noise)
	fmt.Fprintf(&b, "- Pencahayaan: %g lux\n", reading.LightLevel)
	fmt.Fprintf(&b, "- Jumlah penghuni: %d orang\n\n", reading.Occupancy)

	fmt.Fprintf(&b, "HASIL ANALISIS KENYAMANAN TERMAL (ISO 7730):\n")
	fmt.Fprintf(&b, "- PMV: %g (sensasi termal: %s, tingkat keparahan: %s)\n",
		res.Comfort.PMV, pmvDescription(res.Comfort.PMV), severityDescription(res.ThermalSeverity))
	fmt.Fprintf(&b, "- PPD: %g%% penghuni diperkirakan tidak nyaman. Hubungan PMV-PPD eksponensial, bukan linear.\n", res.Comfort.PPD)
	fmt.Fprintf(&b, "- Status kenyamanan fisiologis: %s (target temp %g C)\n\n", res.Comfort.State, res.Band.TargetTemp)

	fmt.Fprintf(&b, "KUALITAS LINGKUNGAN (NON-TERMAL):\n")
	fmt.Fprintf(&b, "- Skor lingkungan: %g/100 (pencahayaan %g, kebisingan %g, kelembapan %g)\n",
		res.EnvScore, res.EnvBreakdown.Lighting, res.EnvBreakdown.Noise, res.EnvBreakdown.Humidity)
	fmt.Fprintf(&b, "- Masalah lingkungan terdeteksi:\n")
	if len(res.Issues) == 0 {
		fmt.Fprintf(&b, "  Tidak ada masalah lingkungan signifikan.\n")
	}
	for _, issue := range res.Issues {
		fmt.Fprintf(&b, "  - [%s] %s\n    Saran: %s\n",
			strings.ToUpper(string(issue.Severity)), issue.Description, issue.Recommendation)
	}
	b.WriteByte('\n')

	fmt.Fprintf(&b, "KEPUTUSAN KONTROL AC:\n")
	fmt.Fprintf(&b, "- Setpoint: %d C (dari target %g C), mode %s, fan %s\n",
		res.ACControl.Temp, res.Band.TargetTemp, res.ACControl.Mode, res.ACControl.Fan)
	fmt.Fprintf(&b, "- Koreksi dihitung dari suhu target, bukan dari suhu aktual.\n\n")

	b.WriteString(focusGuidance(res.Concern))
	b.WriteByte('\n')

	if guard := narrativeGuardrails(res.Comfort.State); guard != "" {
		b.WriteString(guard)
		b.WriteByte('\n')
	}

	if res.EnvScore >= 80 && (res.Comfort.State == engine.StatusOptimalisasi || res.Comfort.State == engine.StatusPeringatan) {
		fmt.Fprintf(&b, "KALIMAT WAJIB DALAM NARASI: karena skor lingkungan (%g%%) tinggi tapi status \"%s\", "+
			"tambahkan kalimat edukatif bahwa status ditentukan oleh kenyamanan fisiologis tubuh (PPD), "+
			"bukan oleh skor lingkungan.\n\n", res.EnvScore, res.Comfort.State)
	}

	fmt.Fprintf(&b, "TUGAS: Buat narasi 3-5 kalimat yang menjelaskan kondisi dengan alur sebab-akibat, "+
		"mengikuti guardrail di atas, menyertakan kalimat wajib jika ada, dan konsisten dengan status %q.\n\n", res.Comfort.State)
	fmt.Fprintf(&b, "FORMAT OUTPUT (JSON):\n{\"reason\": \"<narasi 3-5 kalimat>\"}")

	return b.String()
}

func focusGuidance(c engine.Concern) string {
	switch c {
	case engine.ConcernEnvironmental:
		return "FOKUS NARASI: masalah utama adalah LINGKUNGAN, bukan termal. " +
			"Soroti faktor non-termal (noise/lighting/humidity) sebagai penyebab utama ketidaknyamanan. " +
			"AC tetap disebutkan tapi bukan fokus utama.\n"
	case engine.ConcernBoth:
		return "FOKUS NARASI: ada masalah GANDA (termal dan lingkungan). " +
			"Jelaskan kedua aspek secara seimbang, prioritaskan yang lebih parah.\n"
	case engine.ConcernThermal:
		return "FOKUS NARASI: masalah utama adalah TERMAL. " +
			"Fokus pada PMV dan koreksi AC; lingkungan non-termal dalam kondisi baik.\n"
	default:
		return "FOKUS NARASI: kondisi OPTIMAL. " +
			"Jelaskan mengapa kondisi sudah ideal dan sarankan mempertahankan pengaturan.\n"
	}
}

func narrativeGuardrails(s engine.Status) string {
	switch s {
	case engine.StatusOptimalisasi:
		return "GUARDRAIL NARASI (wajib untuk status Optimalisasi): " +
			"jangan gunakan kata \"koreksi signifikan\", \"penyesuaian agresif\", \"drastis\", atau \"perubahan besar\". " +
			"Gunakan kata \"preventif\", \"ringan\", \"bertahap\", \"halus\", \"penyesuaian kecil\".\n"
	case engine.StatusIdeal:
		return "GUARDRAIL NARASI (untuk status Ideal): tekankan bahwa kondisi sudah optimal " +
			"dan tidak perlu tindakan. Gunakan kata \"pertahankan\", \"optimal\", \"nyaman\", \"seimbang\".\n"
	default:
		return ""
	}
}
