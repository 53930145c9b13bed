package logger_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/relloyd/starpipe/logger"
)

var _ = Describe("Logger", func() {
	log := logger.NewLogger("test-service", "debug", true)
	log.SetJSON()

	capture := func(l *logger.LoggerImpl, fn func()) map[string]interface{} {
		logOutput := bytes.NewBufferString("")
		l.SetOutput(logOutput)
		fn()
		var actual map[string]interface{}
		_ = json.Unmarshal(logOutput.Bytes(), &actual)
		return actual
	}

	It("Should have `test-service` as service name", func() {
		actual := capture(log, func() { log.Info("Testing") })
		Expect(actual["service"]).To(Equal("test-service"))
	})

	It("Should have info as log level", func() {
		actual := capture(log, func() { log.Info("Testing") })
		Expect(actual["level"]).To(Equal("info"))
	})

	It("Should have warn as log level", func() {
		actual := capture(log, func() { log.Warn("Testing") })
		Expect(actual["level"]).To(Equal("warning"))
	})

	It("Should have error as log level with a stack trace", func() {
		actual := capture(log, func() { log.Error("Testing") })
		Expect(actual["level"]).To(Equal("error"))
		Expect(actual["stackTrace"]).ToNot(BeNil())
	})

	It("Should have `Testing` as msg", func() {
		actual := capture(log, func() { log.Info("Testing") })
		Expect(actual["msg"]).To(Equal("Testing"))
	})

	It("Should add fields to child loggers only", func() {
		child := log.WithField("runId", "abc123")
		actual := capture(child, func() { child.Info("Testing") })
		Expect(actual["runId"]).To(Equal("abc123"))
		Expect(actual["service"]).To(Equal("test-service"))
		actual = capture(log, func() { log.Info("Testing") })
		Expect(actual).ToNot(HaveKey("runId"))
	})

	It("Should write JSON from the lambda logger", func() {
		l := logger.NewLambdaLogger("lambda-service", "info")
		actual := capture(l, func() { l.Info("Testing") })
		Expect(actual["service"]).To(Equal("lambda-service"))
		Expect(actual["level"]).To(Equal("info"))
	})
})
