package deepgram

type deepgramVoice string

const (
	VoiceAsteria  deepgramVoice = "aura-2-asteria-en"
	VoiceThalia   deepgramVoice = "aura-2-thalia-en"
	VoiceOrion    deepgramVoice = "aura-2-orion-en"
	VoiceLuna     deepgramVoice = "aura-2-luna-en"
	VoiceArcas    deepgramVoice = "aura-2-arcas-en"
	VoiceAndromeda deepgramVoice = "aura-2-andromeda-en"
)

var defaultVoice = VoiceAsteria

// GetAvailableVoices lists the voices this client accepts. The session voice
// is fixed at construction so every utterance is spoken consistently.
func GetAvailableVoices() []deepgramVoice {
	return []deepgramVoice{
		VoiceAsteria,
		VoiceThalia,
		VoiceOrion,
		VoiceLuna,
		VoiceArcas,
		VoiceAndromeda,
	}
}
