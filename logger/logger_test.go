package logger_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/relloyd/shipetl/logger"
)

var _ = Describe("Logger", func() {
	var (
		l         *logger.LoggerImpl
		logOutput *bytes.Buffer
	)

	BeforeEach(func() {
		l = logger.NewLogger("test-service", "debug", false)
		l.SetJSONFormat()
		logOutput = bytes.NewBufferString("")
		l.SetOutput(logOutput)
	})

	decode := func() map[string]interface{} {
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())
		return actual
	}

	It("Should have `test-service` as service name", func() {
		l.Info("Testing")
		Expect(decode()["service"]).To(Equal("test-service"))
	})

	It("Should have info as log level", func() {
		l.Info("Testing")
		Expect(decode()["level"]).To(Equal("info"))
	})

	It("Should have warning as log level", func() {
		l.Warn("Testing")
		Expect(decode()["level"]).To(Equal("warning"))
	})

	It("Should have `Testing` as msg", func() {
		l.Info("Testing")
		Expect(decode()["msg"]).To(Equal("Testing"))
	})

	It("Should carry fields added with WithField", func() {
		l.WithField("step", "merge").Info("Testing")
		actual := decode()
		Expect(actual["step"]).To(Equal("merge"))
		Expect(actual["service"]).To(Equal("test-service"))
	})

	It("Should add a stack trace to errors when stack dumps are enabled", func() {
		l.PrintStackDump = true
		l.Error("Testing")
		actual := decode()
		Expect(actual["level"]).To(Equal("error"))
		Expect(actual["stackTrace"]).ToNot(BeNil())
	})

	It("Should suppress debug entries at info level", func() {
		quiet := logger.NewLogger("test-service", "info", false)
		quiet.SetOutput(logOutput)
		quiet.Debug("hidden")
		Expect(logOutput.Len()).To(Equal(0))
	})

	It("Should reject unknown levels", func() {
		Expect(logger.ValidateLevel("loud")).ToNot(Succeed())
		Expect(logger.ValidateLevel("warn")).To(Succeed())
	})
})
