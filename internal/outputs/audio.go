package outputs

// AudioOutputs is the audio list model. It has no behaviour beyond the
// generic collection.
type AudioOutputs = Collection[*AudioOutput]

func NewAudioOutputs(deps Deps) *AudioOutputs {
	return NewCollection(AudioKind, deps)
}
