package study

import (
	"github.com/roach88/hierframe/internal/classify"
	"github.com/roach88/hierframe/internal/frame"
)

var colTrueType = frame.Col("true_type", "")

// Category tags of the default true-type sets.
const (
	TagSignal          = "SIGNAL"
	TagAntinuCCNoDecay = "ANTINU_CC_NODECAY"
	TagNuCC            = "NU_CC"
	TagNC              = "NC"
	TagOutOfFV         = "NU_OUT_OF_FV"
	TagCosmic          = "COSMIC"
	TagKaonCC          = "KP_CC"
	TagKaonNC          = "KP_NC"
)

// AntinuSignals returns the default antineutrino signal: a CC interaction
// in the fiducial volume with a mu+ above the cut whose decay positron
// stays in the active volume.
func AntinuSignals() []classify.Signal {
	return []classify.Signal{{
		Out:  frame.Col("is_signal", ""),
		Expr: classify.MustParse(`is_true_fv && nmuplus > 0 && nu.iscc && has_daughter_cont`),
	}}
}

// AntinuTrueType returns the default antineutrino categories. Rows with no
// neutrino truth fall through to COSMIC.
func AntinuTrueType() *classify.TrueType {
	return &classify.TrueType{
		Out: colTrueType,
		Categories: []classify.Category{
			{Tag: TagSignal, Label: "Signal", Expr: classify.Flag("is_signal")},
			{Tag: TagAntinuCCNoDecay, Label: "#bar{#nu}_{#mu} CC, no decay", Expr: classify.MustParse(`is_true_fv && nu.iscc && nu_pdg == -14`)},
			{Tag: TagNuCC, Label: "#nu CC", Expr: classify.MustParse(`is_true_fv && nu.iscc`)},
			{Tag: TagNC, Label: "NC", Expr: classify.MustParse(`is_true_fv && nu.iscc == false`)},
			{Tag: TagOutOfFV, Label: "Out of FV", Expr: classify.MustParse(`!is_true_fv && nu_pdg != 0`)},
		},
		Fallback: TagCosmic,
	}
}

// KaonSignals returns the default K+ signals, CC and NC.
func KaonSignals() []classify.Signal {
	return []classify.Signal{
		{Out: frame.Col("is_signal_kp_cc", ""), Expr: classify.MustParse(`is_true_fv && nu.iscc && nkplus > 0`)},
		{Out: frame.Col("is_signal_kp_nc", ""), Expr: classify.MustParse(`is_true_fv && nu.iscc == false && nkplus > 0`)},
	}
}

// KaonTrueType returns the default kaon categories.
func KaonTrueType() *classify.TrueType {
	return &classify.TrueType{
		Out: colTrueType,
		Categories: []classify.Category{
			{Tag: TagKaonCC, Label: "K^{+} CC", Expr: classify.Flag("is_signal_kp_cc")},
			{Tag: TagKaonNC, Label: "K^{+} NC", Expr: classify.Flag("is_signal_kp_nc")},
			{Tag: TagNuCC, Label: "#nu CC", Expr: classify.MustParse(`is_true_fv && nu.iscc`)},
			{Tag: TagNC, Label: "NC", Expr: classify.MustParse(`is_true_fv && nu.iscc == false`)},
			{Tag: TagOutOfFV, Label: "Out of FV", Expr: classify.MustParse(`!is_true_fv && nu_pdg != 0`)},
		},
		Fallback: TagCosmic,
	}
}
