package logger

import (
	"bytes"
	"log/slog"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

const (
	textTraceString = `^time=[a-zA-Z0-9/:.+-]+ severity=TRACE msg=www.traceExample.com`
	textDebugString = `^time=[a-zA-Z0-9/:.+-]+ severity=DEBUG msg=www.debugExample.com`
	textInfoString  = `^time=[a-zA-Z0-9/:.+-]+ severity=INFO msg=www.infoExample.com`
	textWarnString  = `^time=[a-zA-Z0-9/:.+-]+ severity=WARNING msg=www.warningExample.com`
	textErrorString = `^time=[a-zA-Z0-9/:.+-]+ severity=ERROR msg=www.errorExample.com`

	jsonInfoString = `"severity":"INFO"`
)

type LoggerTest struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTest))
}

func redirectLogsToGivenBuffer(buf *bytes.Buffer, level string) {
	pl := new(slog.LevelVar)
	setLoggingLevel(level, pl)
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(buf, pl, ""))
}

func fetchLogOutputForSpecifiedSeverityLevel(level string, functions []func()) []string {
	var buf bytes.Buffer
	redirectLogsToGivenBuffer(&buf, level)

	var output []string
	for _, f := range functions {
		f()
		output = append(output, buf.String())
		buf.Reset()
	}
	return output
}

func getTestLoggingFunctions() []func() {
	return []func(){
		func() { Tracef("www.traceExample.com") },
		func() { Debugf("www.debugExample.com") },
		func() { Infof("www.infoExample.com") },
		func() { Warnf("www.warningExample.com") },
		func() { Errorf("www.errorExample.com") },
	}
}

func validateOutput(t *testing.T, expected []string, output []string) {
	for i := range output {
		if expected[i] == "" {
			assert.Equal(t, expected[i], output[i])
		} else {
			assert.Regexp(t, regexp.MustCompile(expected[i]), output[i])
		}
	}
}

func validateLogOutputAtSpecifiedFormatAndSeverity(t *testing.T, format, level string, expectedOutput []string) {
	defaultLoggerFactory.format = format
	output := fetchLogOutputForSpecifiedSeverityLevel(level, getTestLoggingFunctions())
	validateOutput(t, expectedOutput, output)
}

func (t *LoggerTest) TestTextFormatLogs_LogLevelOFF() {
	expected := []string{"", "", "", "", ""}
	validateLogOutputAtSpecifiedFormatAndSeverity(t.T(), "text", Off, expected)
}

func (t *LoggerTest) TestTextFormatLogs_LogLevelERROR() {
	expected := []string{"", "", "", "", textErrorString}
	validateLogOutputAtSpecifiedFormatAndSeverity(t.T(), "text", Error, expected)
}

func (t *LoggerTest) TestTextFormatLogs_LogLevelWARNING() {
	expected := []string{"", "", "", textWarnString, textErrorString}
	validateLogOutputAtSpecifiedFormatAndSeverity(t.T(), "text", Warning, expected)
}

func (t *LoggerTest) TestTextFormatLogs_LogLevelINFO() {
	expected := []string{"", "", textInfoString, textWarnString, textErrorString}
	validateLogOutputAtSpecifiedFormatAndSeverity(t.T(), "text", Info, expected)
}

func (t *LoggerTest) TestTextFormatLogs_LogLevelDEBUG() {
	expected := []string{"", textDebugString, textInfoString, textWarnString, textErrorString}
	validateLogOutputAtSpecifiedFormatAndSeverity(t.T(), "text", Debug, expected)
}

func (t *LoggerTest) TestTextFormatLogs_LogLevelTRACE() {
	expected := []string{textTraceString, textDebugString, textInfoString, textWarnString, textErrorString}
	validateLogOutputAtSpecifiedFormatAndSeverity(t.T(), "text", Trace, expected)
}

func (t *LoggerTest) TestJSONFormatLogs_LogLevelINFO() {
	defaultLoggerFactory.format = "json"
	var buf bytes.Buffer
	redirectLogsToGivenBuffer(&buf, Info)
	Infof("www.infoExample.com")
	assert.Contains(t.T(), buf.String(), jsonInfoString)
}

func (t *LoggerTest) TestSetLoggingLevel() {
	testData := []struct {
		inputLevel    string
		expectedLevel slog.Level
	}{
		{Trace, LevelTrace},
		{Debug, LevelDebug},
		{Info, LevelInfo},
		{Warning, LevelWarn},
		{Error, LevelError},
		{Off, LevelOff},
	}

	for _, test := range testData {
		pl := new(slog.LevelVar)
		setLoggingLevel(test.inputLevel, pl)
		assert.Equal(t.T(), test.expectedLevel, pl.Level())
	}
}

func (t *LoggerTest) TestInitOpensFileAndAppliesRotationConfig() {
	filePath := t.T().TempDir() + "/log.txt"
	cfg := Config{
		FilePath: filePath,
		Severity: Debug,
		Format:   "text",
		LogRotateConfig: LogRotateConfig{
			MaxFileSizeMB:   100,
			BackupFileCount: 2,
			Compress:        true,
		},
	}

	err := Init(cfg)

	assert.NoError(t.T(), err)
	assert.NotNil(t.T(), defaultLoggerFactory.sysWriter)
	assert.Equal(t.T(), "text", defaultLoggerFactory.format)
	assert.Equal(t.T(), 100, defaultLoggerFactory.logRotateConfig.MaxFileSizeMB)
	assert.Equal(t.T(), 2, defaultLoggerFactory.logRotateConfig.BackupFileCount)
	assert.True(t.T(), defaultLoggerFactory.logRotateConfig.Compress)
}

func (t *LoggerTest) TestSetLogFormatToText() {
	defaultLoggerFactory = &loggerFactory{level: Info, format: "json", logRotateConfig: DefaultLogRotateConfig()}

	testData := []struct {
		format         string
		expectedOutput string
	}{
		{"text", textInfoString},
		{"json", jsonInfoString},
	}

	for _, test := range testData {
		SetLogFormat(test.format)

		assert.NotNil(t.T(), defaultLoggerFactory)
		assert.NotNil(t.T(), defaultLogger)
		assert.Equal(t.T(), test.format, defaultLoggerFactory.format)

		defaultLoggerFactory.format = test.format
		var buf bytes.Buffer
		redirectLogsToGivenBuffer(&buf, Info)
		Infof("www.infoExample.com")
		assert.Regexp(t.T(), regexp.MustCompile(test.expectedOutput), buf.String())
	}
}
