package api

import (
    "fmt"
    "net/url"
    "strconv"
    "strings"

    "pdpdispatch/internal/instancefile"
    "pdpdispatch/internal/opt"
)

// SolveRequest is the JSON body of POST /v1/solve. Exactly one of
// InstanceText (the benchmark text format) or Instance must be set.
type SolveRequest struct {
    Name         string           `json:"name,omitempty"`
    InstanceText string           `json:"instanceText,omitempty"`
    Instance     *opt.RawInstance `json:"instance,omitempty"`
    Profile      string           `json:"profile,omitempty"`
    Params       *opt.Params      `json:"params,omitempty"`
    Async        bool             `json:"async,omitempty"`
}

func validateSolveRequest(req *SolveRequest) error {
    hasText := strings.TrimSpace(req.InstanceText) != ""
    if hasText == (req.Instance != nil) {
        return fmt.Errorf("exactly one of instanceText or instance is required")
    }
    if len(req.Name) > 200 {
        return fmt.Errorf("name too long")
    }
    return nil
}

func (req *SolveRequest) build() (*opt.Instance, error) {
    name := req.Name
    if req.Instance != nil {
        raw := *req.Instance
        if name != "" { raw.Name = name }
        if raw.Name == "" { raw.Name = "request" }
        return opt.NewInstance(raw)
    }
    if name == "" { name = "request" }
    return instancefile.Parse(strings.NewReader(req.InstanceText), name)
}

// paramsFromQuery reads the solver knobs accepted as query parameters with a text body.
func paramsFromQuery(q url.Values) (*opt.Params, error) {
    var p opt.Params
    set := false
    str := func(key string, dst *string) {
        if v := q.Get(key); v != "" { *dst = v; set = true }
    }
    num := func(key string, dst *int) error {
        v := q.Get(key)
        if v == "" { return nil }
        n, err := strconv.Atoi(v)
        if err != nil { return fmt.Errorf("%s: %w", key, err) }
        *dst, set = n, true
        return nil
    }
    str("algorithm", &p.Algorithm)
    str("construction", &p.Construction)
    str("step", &p.Step)
    str("scope", &p.Scope)
    if v := q.Get("neighborhoods"); v != "" {
        p.Neighborhoods, set = strings.Split(v, ","), true
    }
    for key, dst := range map[string]*int{
        "rclSize": &p.RCLSize, "pilotDepth": &p.PilotDepth, "pilotCandidates": &p.PilotCandidates,
        "workers": &p.Workers, "tabuSize": &p.TabuSize, "maxIterations": &p.MaxIterations,
        "localIterations": &p.LocalIterations,
    } {
        if err := num(key, dst); err != nil { return nil, err }
    }
    if v := q.Get("seed"); v != "" {
        seed, err := strconv.ParseInt(v, 10, 64)
        if err != nil { return nil, fmt.Errorf("seed: %w", err) }
        p.Seed, set = seed, true
    }
    if v := q.Get("maxSeconds"); v != "" {
        secs, err := strconv.ParseFloat(v, 64)
        if err != nil { return nil, fmt.Errorf("maxSeconds: %w", err) }
        p.MaxSeconds, set = secs, true
    }
    if v := q.Get("timeLimit"); v != "" {
        secs, err := strconv.ParseFloat(v, 64)
        if err != nil { return nil, fmt.Errorf("timeLimit: %w", err) }
        p.TimeLimit, set = secs, true
    }
    if !set { return nil, nil }
    return &p, nil
}

// mergeParams overlays the non-zero fields of o onto base.
func mergeParams(base opt.Params, o opt.Params) opt.Params {
    if o.Algorithm != "" { base.Algorithm = o.Algorithm }
    if o.Construction != "" { base.Construction = o.Construction }
    if o.Seed != 0 { base.Seed = o.Seed }
    if o.RCLSize != 0 { base.RCLSize = o.RCLSize }
    if o.PilotDepth != 0 { base.PilotDepth = o.PilotDepth }
    if o.PilotCandidates != 0 { base.PilotCandidates = o.PilotCandidates }
    if o.Workers != 0 { base.Workers = o.Workers }
    if o.TabuSize != 0 { base.TabuSize = o.TabuSize }
    if len(o.Neighborhoods) > 0 { base.Neighborhoods = o.Neighborhoods }
    if o.Step != "" { base.Step = o.Step }
    if o.Scope != "" { base.Scope = o.Scope }
    if o.MaxIterations != 0 { base.MaxIterations = o.MaxIterations }
    if o.MaxSeconds != 0 { base.MaxSeconds = o.MaxSeconds }
    if o.LocalIterations != 0 { base.LocalIterations = o.LocalIterations }
    if o.TimeLimit != 0 { base.TimeLimit = o.TimeLimit }
    return base
}
