package cache

func (s *UnitTestSuite) TestKeyIsDeterministic() {
	s.Equal(Key("tts", "hello", "Kore", "1.0"), Key("tts", "hello", "Kore", "1.0"))
}

func (s *UnitTestSuite) TestKeyChangesWithAnyPart() {
	base := Key("tts", "hello", "Kore", "1.0")
	s.NotEqual(base, Key("tts", "hello", "Puck", "1.0"))
	s.NotEqual(base, Key("tts", "hello", "Kore", "1.5"))
	s.NotEqual(base, Key("response", "hello", "Kore", "1.0"))
}

func (s *UnitTestSuite) TestKeyPartBoundariesDoNotCollide() {
	s.NotEqual(Key("ab", "c"), Key("a", "bc"))
	s.NotEqual(Key("a", "", "b"), Key("a", "b"))
}
